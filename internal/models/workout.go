package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for workout dates.
const DateLayout = "2006-01-02"

// WorkoutStatus is the lifecycle state of a workout.
type WorkoutStatus string

const (
	StatusProposed  WorkoutStatus = "proposed"
	StatusActive    WorkoutStatus = "active"
	StatusCompleted WorkoutStatus = "completed"
	StatusSkipped   WorkoutStatus = "skipped"
)

// ErrInvalidTransition is returned when a status change would move a workout backwards.
var ErrInvalidTransition = errors.New("invalid workout status transition")

// ErrInvalidExercise is returned for an exercise outside its allowed ranges.
var ErrInvalidExercise = errors.New("invalid exercise")

var statusRank = map[WorkoutStatus]int{
	StatusProposed:  0,
	StatusActive:    1,
	StatusCompleted: 2,
}

// Valid reports whether s is one of the known statuses.
func (s WorkoutStatus) Valid() bool {
	switch s {
	case StatusProposed, StatusActive, StatusCompleted, StatusSkipped:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s WorkoutStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// CanTransition reports whether a workout in status s may move to next.
// Staying in the same status is allowed. Skipped is reachable from any
// non-terminal status.
func (s WorkoutStatus) CanTransition(next WorkoutStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == "" {
		s = StatusProposed
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == StatusSkipped {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Exercise is one ordered entry of a workout.
type Exercise struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	Weight       float64  `json:"weight"`
	RestSeconds  int      `json:"rest_seconds,omitempty"`
	Notes        string   `json:"notes"`
	Completed    bool     `json:"completed,omitempty"`
	ActualSets   *int     `json:"actual_sets,omitempty"`
	ActualReps   []int    `json:"actual_reps,omitempty"`
	ActualWeight *float64 `json:"actual_weight,omitempty"`
}

// Validate checks that the exercise has at least one set of at least one
// rep and no negative weight.
func (e Exercise) Validate() error {
	switch {
	case e.Sets < 1:
		return fmt.Errorf("%w %q: sets must be at least 1", ErrInvalidExercise, e.Name)
	case e.Reps < 1:
		return fmt.Errorf("%w %q: reps must be at least 1", ErrInvalidExercise, e.Name)
	case e.Weight < 0:
		return fmt.Errorf("%w %q: weight must not be negative", ErrInvalidExercise, e.Name)
	}
	return nil
}

// ValidateExercises checks every exercise of exs.
func ValidateExercises(exs []Exercise) error {
	for _, e := range exs {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExerciseProgress is the per-exercise summary written when an exercise is
// finished during a session.
type ExerciseProgress struct {
	Completed    bool    `json:"completed"`
	ActualSets   int     `json:"actual_sets"`
	ActualReps   []int   `json:"actual_reps"`
	ActualWeight float64 `json:"actual_weight"`
}

// Apply copies the progress summary onto the exercise.
func (e *Exercise) Apply(p ExerciseProgress) {
	sets := p.ActualSets
	weight := p.ActualWeight
	e.Completed = p.Completed
	e.ActualSets = &sets
	e.ActualReps = append([]int(nil), p.ActualReps...)
	e.ActualWeight = &weight
}

// Workout is a named, dated collection of ordered exercises.
type Workout struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id,omitempty"`
	ChatID          string        `json:"chat_id,omitempty"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Date            string        `json:"date"`
	Duration        int           `json:"duration"`
	Notes           string        `json:"notes"`
	DifficultyLevel string        `json:"difficulty_level,omitempty"`
	WorkoutType     string        `json:"workout_type,omitempty"`
	Exercises       []Exercise    `json:"exercises"`
	Status          WorkoutStatus `json:"status"`
	Completed       bool          `json:"completed"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       *time.Time    `json:"created_at,omitempty"`
	UpdatedAt       *time.Time    `json:"updated_at,omitempty"`
}

// Transition moves the workout to next, stamping started_at when it becomes
// active and completed_at when it is completed.
func (w *Workout) Transition(next WorkoutStatus, now time.Time) error {
	if !w.Status.CanTransition(next) {
		return ErrInvalidTransition
	}
	if w.Status == next {
		return nil
	}
	w.Status = next
	switch next {
	case StatusActive:
		if w.StartedAt == nil {
			w.StartedAt = &now
		}
	case StatusCompleted:
		w.CompletedAt = &now
		w.Completed = true
	}
	return nil
}

// Clone returns a deep copy of the workout.
func (w Workout) Clone() Workout {
	out := w
	out.Exercises = make([]Exercise, len(w.Exercises))
	for i, e := range w.Exercises {
		c := e
		if e.ActualSets != nil {
			v := *e.ActualSets
			c.ActualSets = &v
		}
		if e.ActualWeight != nil {
			v := *e.ActualWeight
			c.ActualWeight = &v
		}
		c.ActualReps = append([]int(nil), e.ActualReps...)
		out.Exercises[i] = c
	}
	out.StartedAt = cloneTime(w.StartedAt)
	out.CompletedAt = cloneTime(w.CompletedAt)
	out.CreatedAt = cloneTime(w.CreatedAt)
	out.UpdatedAt = cloneTime(w.UpdatedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
