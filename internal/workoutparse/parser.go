// Package workoutparse turns raw chat-completion text into validated workouts.
package workoutparse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logancoach/logan/internal/coerce"
	"github.com/logancoach/logan/internal/models"
)

const (
	defaultSets         = 3
	defaultReps         = 10
	defaultName         = "Unknown Exercise"
	defaultDurationMins = 30
)

var (
	quotedSeconds = regexp.MustCompile(`"(\d+)\s*seconds?"`)
	quotedReps    = regexp.MustCompile(`"(\d+)\s*reps?"`)
)

// Request carries the generation parameters the parser copies onto the result.
type Request struct {
	DurationMinutes int
}

// PlanRequest carries the weekly plan generation parameters.
type PlanRequest struct {
	FitnessLevel     string
	Goals            string
	WorkoutFrequency string
	TimeAvailable    string
	Equipment        string
	FocusAreas       string
}

// Parser converts LLM output into models. The zero value is not usable; call New.
type Parser struct {
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

// New creates a Parser.
func New(log *slog.Logger) *Parser {
	return &Parser{log: log, now: time.Now, newID: uuid.NewString}
}

// Minutes converts a requested time such as "45" to minutes, falling back to 30.
func Minutes(s string) int {
	if n, ok := coerce.Int(s); ok && n > 0 {
		return n
	}
	return defaultDurationMins
}

// Parse extracts, repairs, validates and normalises a single workout.
func (p *Parser) Parse(raw string, req Request) (*models.Workout, error) {
	obj, err := p.decode(raw)
	if err != nil {
		return nil, err
	}

	name := text(obj["name"])
	exercises, isList := obj["exercises"].([]any)
	if name == "" || !isList {
		return nil, &ParseError{Kind: InvalidStructure, Raw: raw, Err: fmt.Errorf("name and exercises are required")}
	}

	w := &models.Workout{
		ID:          text(obj["id"]),
		Name:        name,
		Description: text(obj["description"]),
		Date:        text(obj["date"]),
		Notes:       text(obj["notes"]),
		Exercises:   normalizeExercises(exercises),
		Duration:    req.DurationMinutes,
		Status:      models.StatusProposed,
		Completed:   false,
	}
	if w.ID == "" {
		w.ID = p.newID()
	}
	if w.Date == "" {
		w.Date = p.today()
	}
	if w.Duration <= 0 {
		w.Duration = defaultDurationMins
	}
	return w, nil
}

// ParsePlan is Parse for weekly plans. The generated day count is kept even
// when it differs from the requested frequency.
func (p *Parser) ParsePlan(raw string, req PlanRequest) (*models.WeeklyPlan, error) {
	obj, err := p.decode(raw)
	if err != nil {
		return nil, err
	}

	name := text(obj["name"])
	days, isList := obj["weeklyPlan"].([]any)
	if name == "" || !isList || len(days) == 0 {
		return nil, &ParseError{Kind: InvalidStructure, Raw: raw, Err: fmt.Errorf("name and a non-empty weeklyPlan are required")}
	}

	plan := &models.WeeklyPlan{
		Name:             name,
		Description:      text(obj["description"]),
		Notes:            text(obj["notes"]),
		WeeklyPlan:       make([]models.PlanDay, 0, len(days)),
		Date:             p.today(),
		FitnessLevel:     req.FitnessLevel,
		Goals:            req.Goals,
		WorkoutFrequency: req.WorkoutFrequency,
		TimeAvailable:    req.TimeAvailable,
		Equipment:        req.Equipment,
		FocusAreas:       req.FocusAreas,
	}
	for _, d := range days {
		day, _ := d.(map[string]any)
		workout, _ := day["workout"].(map[string]any)
		exercises, _ := workout["exercises"].([]any)
		plan.WeeklyPlan = append(plan.WeeklyPlan, models.PlanDay{
			Day:   text(day["day"]),
			Focus: text(day["focus"]),
			Workout: models.PlanWorkout{
				Name:      text(workout["name"]),
				Exercises: normalizeExercises(exercises),
				Notes:     text(workout["notes"]),
			},
		})
	}

	if want, err := strconv.Atoi(req.WorkoutFrequency); err == nil && want != len(plan.WeeklyPlan) {
		p.log.Warn("weekly plan day count differs from requested frequency",
			"requested", want, "generated", len(plan.WeeklyPlan))
	}
	return plan, nil
}

func (p *Parser) today() string {
	return p.now().Format(models.DateLayout)
}

// decode slices the outermost braces, parses, and on failure applies the
// quoted-unit repairs before a second and final attempt.
func (p *Parser) decode(raw string) (map[string]any, error) {
	cleaned := Extract(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, nil
	}

	repaired := Repair(cleaned)
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		p.log.Error("could not parse workout JSON", "error", err, "raw", raw, "cleaned", repaired)
		return nil, &ParseError{Kind: MalformedResponse, Raw: raw, Cleaned: repaired, Err: err}
	}
	p.log.Debug("parsed workout JSON after repair")
	return obj, nil
}

// Extract trims text and slices it from the first '{' to the last '}'.
func Extract(raw string) string {
	s := strings.TrimSpace(raw)
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		s = s[first : last+1]
	}
	return s
}

// Repair unquotes numeric values written with units, e.g. "30 seconds" or "10 reps".
func Repair(s string) string {
	s = quotedSeconds.ReplaceAllString(s, "$1")
	return quotedReps.ReplaceAllString(s, "$1")
}

func normalizeExercises(in []any) []models.Exercise {
	out := make([]models.Exercise, 0, len(in))
	for _, v := range in {
		m, _ := v.(map[string]any)
		out = append(out, normalizeExercise(m))
	}
	return out
}

// normalizeExercise never fails: unreadable values fall back to defaults.
func normalizeExercise(m map[string]any) models.Exercise {
	e := models.Exercise{
		Name:  text(m["name"]),
		Sets:  defaultSets,
		Reps:  defaultReps,
		Notes: text(m["notes"]),
	}
	if e.Name == "" {
		e.Name = defaultName
	}
	if n, ok := coerce.Int(m["sets"]); ok && n >= 1 {
		e.Sets = n
	}
	if n, ok := coerce.Int(m["reps"]); ok && n >= 1 {
		e.Reps = n
	}
	if f, ok := coerce.Float(m["weight"]); ok && f > 0 {
		e.Weight = f
	}
	if n, ok := coerce.Int(m["rest_seconds"]); ok && n > 0 {
		e.RestSeconds = n
	}
	return e
}
