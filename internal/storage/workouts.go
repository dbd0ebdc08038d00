package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/logancoach/logan/internal/models"
)

const workoutColumns = `id, user_id, COALESCE(chat_id, ''), name, description, scheduled_date,
	duration_minutes, notes, difficulty_level, workout_type, status,
	started_at, completed_at, created_at, updated_at`

func scanWorkout(row pgx.CollectableRow) (models.Workout, error) {
	var (
		w                 models.Workout
		date              time.Time
		created, updated  time.Time
		startedAt, doneAt *time.Time
	)
	err := row.Scan(&w.ID, &w.UserID, &w.ChatID, &w.Name, &w.Description, &date,
		&w.Duration, &w.Notes, &w.DifficultyLevel, &w.WorkoutType, &w.Status,
		&startedAt, &doneAt, &created, &updated)
	if err != nil {
		return w, err
	}
	w.Date = date.Format(models.DateLayout)
	w.StartedAt = startedAt
	w.CompletedAt = doneAt
	w.Completed = w.Status == models.StatusCompleted
	w.CreatedAt = &created
	w.UpdatedAt = &updated
	w.Exercises = []models.Exercise{}
	return w, nil
}

// ListWorkouts returns the user's workouts, newest scheduled date first.
func (db *DB) ListWorkouts(ctx context.Context, userID string) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1
		 ORDER BY scheduled_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	workouts, err := pgx.CollectRows(rows, scanWorkout)
	if err != nil {
		return nil, fmt.Errorf("scanning workouts: %w", err)
	}
	if err := db.attachExercises(ctx, workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// GetWorkout returns one workout with its exercises.
func (db *DB) GetWorkout(ctx context.Context, userID, id string) (*models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	w, err := pgx.CollectExactlyOneRow(rows, scanWorkout)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning workout: %w", err)
	}
	ws := []models.Workout{w}
	if err := db.attachExercises(ctx, ws); err != nil {
		return nil, err
	}
	return &ws[0], nil
}

func (db *DB) attachExercises(ctx context.Context, workouts []models.Workout) error {
	if len(workouts) == 0 {
		return nil
	}
	ids := make([]string, len(workouts))
	index := make(map[string]int, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
		index[w.ID] = i
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT workout_id, id, name, sets, reps, weight_lbs, rest_seconds, notes,
		 completed, actual_sets, actual_reps, actual_weight_lbs
		 FROM exercises
		 WHERE workout_id = ANY($1)
		 ORDER BY workout_id, order_in_workout`, ids)
	if err != nil {
		return fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			workoutID string
			e         models.Exercise
		)
		if err := rows.Scan(&workoutID, &e.ID, &e.Name, &e.Sets, &e.Reps, &e.Weight, &e.RestSeconds,
			&e.Notes, &e.Completed, &e.ActualSets, &e.ActualReps, &e.ActualWeight); err != nil {
			return fmt.Errorf("scanning exercise: %w", err)
		}
		i := index[workoutID]
		workouts[i].Exercises = append(workouts[i].Exercises, e)
	}
	return rows.Err()
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid workout date %q: %w", s, err)
	}
	return d, nil
}

// CreateWorkout inserts the workout and its exercises in one transaction.
func (db *DB) CreateWorkout(ctx context.Context, w *models.Workout) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		return insertWorkout(ctx, tx, w)
	})
}

// CreateWorkouts inserts all of ws in one transaction. Either every workout
// is stored or none is.
func (db *DB) CreateWorkouts(ctx context.Context, ws []models.Workout) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		for i := range ws {
			if err := insertWorkout(ctx, tx, &ws[i]); err != nil {
				return fmt.Errorf("workout %d of %d: %w", i+1, len(ws), err)
			}
		}
		return nil
	})
}

func insertWorkout(ctx context.Context, tx pgx.Tx, w *models.Workout) error {
	date, err := parseDate(w.Date)
	if err != nil {
		return err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = models.StatusProposed
	}

	var created time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO workouts (id, user_id, chat_id, name, description, scheduled_date, duration_minutes,
		 notes, difficulty_level, workout_type, status, started_at, completed_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		w.ID, w.UserID, w.ChatID, w.Name, w.Description, date, w.Duration,
		w.Notes, w.DifficultyLevel, w.WorkoutType, w.Status, w.StartedAt, w.CompletedAt,
	).Scan(&created)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	if err := insertExercises(ctx, tx, w); err != nil {
		return err
	}
	w.CreatedAt = &created
	w.UpdatedAt = &created
	return nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, w *models.Workout) error {
	if len(w.Exercises) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for i := range w.Exercises {
		e := &w.Exercises[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		b.Queue(`INSERT INTO exercises (id, workout_id, name, sets, reps, weight_lbs, rest_seconds, notes,
			order_in_workout, completed, actual_sets, actual_reps, actual_weight_lbs)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			e.ID, w.ID, e.Name, e.Sets, e.Reps, e.Weight, e.RestSeconds, e.Notes,
			i+1, e.Completed, e.ActualSets, e.ActualReps, e.ActualWeight)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("inserting exercises: %w", err)
	}
	return nil
}

// UpdateWorkout rewrites the workout row and replaces its exercises,
// keeping the IDs the exercises already carry.
func (db *DB) UpdateWorkout(ctx context.Context, w *models.Workout) error {
	date, err := parseDate(w.Date)
	if err != nil {
		return err
	}

	var updated time.Time
	err = db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE workouts SET chat_id = NULLIF($3, ''), name = $4, description = $5, scheduled_date = $6,
			 duration_minutes = $7, notes = $8, difficulty_level = $9, workout_type = $10, status = $11,
			 started_at = $12, completed_at = $13, updated_at = NOW()
			 WHERE id = $1 AND user_id = $2
			 RETURNING updated_at`,
			w.ID, w.UserID, w.ChatID, w.Name, w.Description, date, w.Duration,
			w.Notes, w.DifficultyLevel, w.WorkoutType, w.Status, w.StartedAt, w.CompletedAt,
		).Scan(&updated)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("updating workout: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM exercises WHERE workout_id = $1`, w.ID); err != nil {
			return fmt.Errorf("clearing exercises: %w", err)
		}
		return insertExercises(ctx, tx, w)
	})
	if err != nil {
		return err
	}
	w.UpdatedAt = &updated
	return nil
}

// DeleteWorkout removes a workout; its exercises go with it.
func (db *DB) DeleteWorkout(ctx context.Context, userID, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateExerciseProgress records the session results of one exercise.
func (db *DB) UpdateExerciseProgress(ctx context.Context, exerciseID string, p models.ExerciseProgress) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises SET completed = $2, actual_sets = $3, actual_reps = $4, actual_weight_lbs = $5
		 WHERE id = $1`,
		exerciseID, p.Completed, p.ActualSets, p.ActualReps, p.ActualWeight)
	if err != nil {
		return fmt.Errorf("updating exercise progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
