// Package session drives a live workout: per-set progress, exercise
// navigation, the elapsed-time clock and the voice coach's function calls.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/logancoach/logan/internal/coerce"
	"github.com/logancoach/logan/internal/models"
)

var (
	ErrOutOfRange   = errors.New("exercise or set index out of range")
	ErrSetCompleted = errors.New("set already completed")
	ErrUnknownField = errors.New("unknown set field")
)

// Field names a mutable attribute of a set.
type Field string

const (
	FieldReps   Field = "reps"
	FieldWeight Field = "weight"
)

// Phase is the derived progress state of one exercise.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseInProgress Phase = "in-progress"
	PhaseDone       Phase = "done"
)

// Set is the live state of one set.
type Set struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	Completed bool    `json:"completed"`
}

// ProgressFunc is called once when the last open set of an exercise is
// completed.
type ProgressFunc func(index int, ex models.Exercise, p models.ExerciseProgress)

// Runner holds the state of one active workout. It is not safe for
// concurrent use; Manager serialises access.
type Runner struct {
	workout   models.Workout
	sets      [][]Set
	current   int
	startedAt time.Time
	onDone    ProgressFunc
}

// NewRunner builds the per-set state for w. Every exercise gets at least one
// set. Sets start from the recorded actuals when present and from the
// targets otherwise. An exercise already
// marked completed starts with all of its sets completed.
func NewRunner(w models.Workout, startedAt time.Time, onDone ProgressFunc) *Runner {
	w = w.Clone()
	r := &Runner{
		workout:   w,
		sets:      make([][]Set, len(w.Exercises)),
		startedAt: startedAt,
		onDone:    onDone,
	}
	for i, ex := range w.Exercises {
		weight := ex.Weight
		if ex.ActualWeight != nil && *ex.ActualWeight != 0 {
			weight = *ex.ActualWeight
		}
		sets := make([]Set, max(ex.Sets, 1))
		for j := range sets {
			reps := ex.Reps
			if j < len(ex.ActualReps) && ex.ActualReps[j] != 0 {
				reps = ex.ActualReps[j]
			}
			sets[j] = Set{Reps: reps, Weight: weight, Completed: ex.Completed}
		}
		r.sets[i] = sets
	}
	return r
}

// Workout returns a copy of the workout the session was started from.
func (r *Runner) Workout() models.Workout {
	return r.workout.Clone()
}

// StartedAt is the wall-clock start of the session.
func (r *Runner) StartedAt() time.Time {
	return r.startedAt
}

func (r *Runner) set(ex, set int) (*Set, error) {
	if ex < 0 || ex >= len(r.sets) || set < 0 || set >= len(r.sets[ex]) {
		return nil, fmt.Errorf("%w: exercise %d set %d", ErrOutOfRange, ex, set)
	}
	return &r.sets[ex][set], nil
}

// UpdateSet changes the reps or weight of an open set. Values that are not
// numbers become 0.
func (r *Runner) UpdateSet(ex, set int, field Field, value any) error {
	s, err := r.set(ex, set)
	if err != nil {
		return err
	}
	if s.Completed {
		return ErrSetCompleted
	}
	switch field {
	case FieldReps:
		n, _ := coerce.Int(value)
		s.Reps = n
	case FieldWeight:
		f, _ := coerce.Float(value)
		s.Weight = f
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// CompleteSet marks a set completed. Completing an already completed set
// is a no-op and reports changed=false.
func (r *Runner) CompleteSet(ex, set int) (changed bool, err error) {
	s, err := r.set(ex, set)
	if err != nil {
		return false, err
	}
	if s.Completed {
		return false, nil
	}
	s.Completed = true
	if r.exerciseDone(ex) && r.onDone != nil {
		r.onDone(ex, r.workout.Exercises[ex], r.progress(ex))
	}
	return true, nil
}

func (r *Runner) exerciseDone(ex int) bool {
	for _, s := range r.sets[ex] {
		if !s.Completed {
			return false
		}
	}
	return true
}

func (r *Runner) completedSets(ex int) int {
	n := 0
	for _, s := range r.sets[ex] {
		if s.Completed {
			n++
		}
	}
	return n
}

// nextOpenSet returns the index of the first open set, or -1.
func (r *Runner) nextOpenSet(ex int) int {
	for i, s := range r.sets[ex] {
		if !s.Completed {
			return i
		}
	}
	return -1
}

func (r *Runner) phase(ex int) Phase {
	switch done := r.completedSets(ex); {
	case done == len(r.sets[ex]):
		return PhaseDone
	case done == 0:
		return PhasePending
	default:
		return PhaseInProgress
	}
}

func (r *Runner) progress(ex int) models.ExerciseProgress {
	sets := r.sets[ex]
	reps := make([]int, len(sets))
	for i, s := range sets {
		reps[i] = s.Reps
	}
	var weight float64
	if len(sets) > 0 {
		weight = sets[0].Weight
	}
	return models.ExerciseProgress{
		Completed:    r.exerciseDone(ex),
		ActualSets:   r.completedSets(ex),
		ActualReps:   reps,
		ActualWeight: weight,
	}
}

// Navigate moves to exercise i. Set state is untouched.
func (r *Runner) Navigate(i int) error {
	if i < 0 || i >= len(r.sets) {
		return fmt.Errorf("%w: exercise %d", ErrOutOfRange, i)
	}
	r.current = i
	return nil
}

// Current is the index of the exercise on screen.
func (r *Runner) Current() int {
	return r.current
}

// Elapsed is the time since the session started, in whole seconds.
func (r *Runner) Elapsed(now time.Time) time.Duration {
	d := now.Sub(r.startedAt).Truncate(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// Finish folds the per-set state into the exercises and returns the
// completed workout. The runner itself is left unchanged.
func (r *Runner) Finish(now time.Time) (models.Workout, error) {
	w := r.workout.Clone()
	for i := range w.Exercises {
		ex := &w.Exercises[i]
		p := r.progress(i)
		if len(r.sets[i]) == 0 || r.sets[i][0].Weight == 0 {
			p.ActualWeight = ex.Weight
		}
		ex.Apply(p)
	}
	if err := w.Transition(models.StatusCompleted, now); err != nil {
		return models.Workout{}, err
	}
	return w, nil
}

// ExerciseState is the view of one exercise in a Snapshot.
type ExerciseState struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Sets      []Set   `json:"sets"`
	Completed bool    `json:"completed"`
	Phase     Phase   `json:"phase"`
	Target    int     `json:"target_reps"`
	Weight    float64 `json:"target_weight"`
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	WorkoutID      string          `json:"workout_id"`
	Name           string          `json:"name"`
	Current        int             `json:"current_exercise"`
	Exercises      []ExerciseState `json:"exercises"`
	CompletedSets  int             `json:"completed_sets"`
	TotalSets      int             `json:"total_sets"`
	StartedAt      time.Time       `json:"started_at"`
	ElapsedSeconds int             `json:"elapsed_seconds"`
}

// Snapshot copies the current state.
func (r *Runner) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		WorkoutID:      r.workout.ID,
		Name:           r.workout.Name,
		Current:        r.current,
		Exercises:      make([]ExerciseState, len(r.sets)),
		StartedAt:      r.startedAt,
		ElapsedSeconds: int(r.Elapsed(now) / time.Second),
	}
	for i, sets := range r.sets {
		ex := r.workout.Exercises[i]
		snap.Exercises[i] = ExerciseState{
			Index:     i,
			Name:      ex.Name,
			Sets:      append([]Set(nil), sets...),
			Completed: r.exerciseDone(i),
			Phase:     r.phase(i),
			Target:    ex.Reps,
			Weight:    ex.Weight,
		}
		snap.CompletedSets += r.completedSets(i)
		snap.TotalSets += len(sets)
	}
	return snap
}
