package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/workoutparse"
)

// DefaultPlanWeeks is how far ahead a plan is scheduled when the caller
// does not say.
const DefaultPlanWeeks = 4

// MaxPlanWeeks is the longest schedule a plan may be stored for.
const MaxPlanWeeks = 12

const defaultPlanMinutes = 45

// ErrPlanWeeks is returned for a schedule length outside 1..MaxPlanWeeks.
var ErrPlanWeeks = errors.New("weeks must be between 1 and 12")

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// PlanDates returns the calendar dates for every day of p over weeks weeks,
// week by week. A named weekday lands on its next occurrence strictly after
// today; a day without a weekday name lands on consecutive days from
// tomorrow in plan order.
func PlanDates(p *models.WeeklyPlan, today time.Time, weeks int) [][]time.Time {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	out := make([][]time.Time, weeks)
	for week := range weeks {
		out[week] = make([]time.Time, len(p.WeeklyPlan))
		for i, d := range p.WeeklyPlan {
			days := i + 1
			if wd, ok := weekdays[strings.ToLower(strings.TrimSpace(d.Day))]; ok {
				days = int(wd) - int(today.Weekday())
				if days <= 0 {
					days += 7
				}
			}
			out[week][i] = today.AddDate(0, 0, days+7*week)
		}
	}
	return out
}

// SchedulePlan stores every day of the plan as a proposed workout for the
// given number of weeks and returns the workouts in creation order. Zero
// weeks means DefaultPlanWeeks. The schedule is stored atomically.
func (s *Service) SchedulePlan(ctx context.Context, userID string, p *models.WeeklyPlan, weeks int) ([]models.Workout, error) {
	if weeks == 0 {
		weeks = DefaultPlanWeeks
	}
	if weeks < 1 || weeks > MaxPlanWeeks {
		return nil, ErrPlanWeeks
	}
	for _, day := range p.WeeklyPlan {
		if err := models.ValidateExercises(day.Workout.Exercises); err != nil {
			return nil, err
		}
	}
	duration := defaultPlanMinutes
	if n := workoutparse.Minutes(p.TimeAvailable); p.TimeAvailable != "" {
		duration = n
	}

	dates := PlanDates(p, s.now(), weeks)
	out := make([]models.Workout, 0, weeks*len(p.WeeklyPlan))
	for _, week := range dates {
		for i, day := range p.WeeklyPlan {
			name := day.Workout.Name
			if name == "" {
				name = fmt.Sprintf("%s - %s", p.Name, day.Day)
			}
			out = append(out, models.Workout{
				UserID:          userID,
				Name:            name,
				Description:     day.Focus,
				Date:            week[i].Format(models.DateLayout),
				Duration:        duration,
				Notes:           day.Workout.Notes,
				DifficultyLevel: p.FitnessLevel,
				WorkoutType:     day.Focus,
				Exercises:       append([]models.Exercise(nil), day.Workout.Exercises...),
				Status:          models.StatusProposed,
			})
		}
	}
	if err := s.store.CreateWorkouts(ctx, out); err != nil {
		return nil, fmt.Errorf("scheduling plan %q: %w", p.Name, err)
	}
	s.log.Info("scheduled weekly plan", "user_id", userID, "plan", p.Name, "workouts", len(out))
	return out, nil
}
