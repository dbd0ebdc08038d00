package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/logancoach/logan/internal/bg"
	"github.com/logancoach/logan/internal/models"
)

// ErrNoSession is returned when the workout has no running session for the user.
var ErrNoSession = errors.New("no active session for workout")

// WorkoutStore is the persistence the manager needs.
type WorkoutStore interface {
	GetWorkout(ctx context.Context, userID, id string) (*models.Workout, error)
	UpdateWorkout(ctx context.Context, w *models.Workout) error
	UpdateExerciseProgress(ctx context.Context, exerciseID string, p models.ExerciseProgress) error
}

type entry struct {
	mu     sync.Mutex
	userID string
	runner *Runner
}

// Manager owns the running sessions, one per workout. Each session has its
// own lock so requests against different workouts never contend.
type Manager struct {
	store WorkoutStore
	bg    *bg.Runner
	log   *slog.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager creates a Manager. Exercise progress writes run on tasks.
func NewManager(store WorkoutStore, tasks *bg.Runner, log *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		bg:       tasks,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Start activates the workout and opens a session for it. Starting a
// workout that already has a session returns the running one.
func (m *Manager) Start(ctx context.Context, userID, workoutID string) (Snapshot, error) {
	if e := m.lookup(userID, workoutID); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.runner.Snapshot(m.now()), nil
	}

	w, err := m.store.GetWorkout(ctx, userID, workoutID)
	if err != nil {
		return Snapshot{}, err
	}
	now := m.now()
	if err := w.Transition(models.StatusActive, now); err != nil {
		return Snapshot{}, err
	}
	if err := m.store.UpdateWorkout(ctx, w); err != nil {
		return Snapshot{}, fmt.Errorf("activating workout: %w", err)
	}

	e := &entry{userID: userID, runner: NewRunner(*w, now, m.saveProgress(workoutID))}

	m.mu.Lock()
	if existing, ok := m.sessions[workoutID]; ok && existing.userID == userID {
		e = existing
	} else {
		m.sessions[workoutID] = e
	}
	m.mu.Unlock()

	m.log.Info("session started", "workout_id", workoutID, "user_id", userID, "exercises", len(w.Exercises))

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runner.Snapshot(now), nil
}

func (m *Manager) saveProgress(workoutID string) ProgressFunc {
	return func(index int, ex models.Exercise, p models.ExerciseProgress) {
		if ex.ID == "" {
			return
		}
		m.bg.Go("exercise progress", func(ctx context.Context) error {
			return m.store.UpdateExerciseProgress(ctx, ex.ID, p)
		})
		m.log.Debug("exercise done", "workout_id", workoutID, "exercise", index)
	}
}

func (m *Manager) lookup(userID, workoutID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[workoutID]
	if !ok || e.userID != userID {
		return nil
	}
	return e
}

// With runs fn against the session while holding its lock.
func (m *Manager) With(userID, workoutID string, fn func(r *Runner) error) error {
	e := m.lookup(userID, workoutID)
	if e == nil {
		return ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.runner)
}

// Snapshot returns the session's current state.
func (m *Manager) Snapshot(userID, workoutID string) (Snapshot, error) {
	var snap Snapshot
	err := m.With(userID, workoutID, func(r *Runner) error {
		snap = r.Snapshot(m.now())
		return nil
	})
	return snap, err
}

// Elapsed returns the session's elapsed time in whole seconds.
func (m *Manager) Elapsed(userID, workoutID string) (time.Duration, error) {
	var d time.Duration
	err := m.With(userID, workoutID, func(r *Runner) error {
		d = r.Elapsed(m.now())
		return nil
	})
	return d, err
}

// Finish folds the session into a completed workout, persists it and
// closes the session. The session stays open if the write fails.
func (m *Manager) Finish(ctx context.Context, userID, workoutID string) (*models.Workout, error) {
	e := m.lookup(userID, workoutID)
	if e == nil {
		return nil, ErrNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.runner.Finish(m.now())
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateWorkout(ctx, &w); err != nil {
		return nil, fmt.Errorf("saving completed workout: %w", err)
	}

	m.mu.Lock()
	if m.sessions[workoutID] == e {
		delete(m.sessions, workoutID)
	}
	m.mu.Unlock()

	m.log.Info("session finished", "workout_id", workoutID, "user_id", userID)
	return &w, nil
}

// Active reports how many sessions are open.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
