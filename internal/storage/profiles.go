package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/logancoach/logan/internal/models"
)

// GetProfile returns the user's profile.
func (db *DB) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var (
		p                models.Profile
		level            *string
		created, updated time.Time
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, fitness_level, primary_goals, available_equipment, focus_areas,
		 preferred_duration_minutes, workout_frequency_per_week, total_workouts_completed,
		 last_chat_at, created_at, updated_at
		 FROM user_profiles WHERE id = $1`, userID,
	).Scan(&p.UserID, &level, &p.PrimaryGoals, &p.AvailableEquipment, &p.FocusAreas,
		&p.PreferredDurationMinutes, &p.WorkoutFrequencyPerWeek, &p.TotalWorkoutsCompleted,
		&p.LastChatAt, &created, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	if level != nil {
		p.FitnessLevel = *level
	}
	p.CreatedAt = &created
	p.UpdatedAt = &updated
	return &p, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// UpsertProfile inserts or replaces the user's profile.
func (db *DB) UpsertProfile(ctx context.Context, p *models.Profile) error {
	var created, updated time.Time
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO user_profiles (id, fitness_level, primary_goals, available_equipment, focus_areas,
		 preferred_duration_minutes, workout_frequency_per_week, total_workouts_completed, last_chat_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			fitness_level = EXCLUDED.fitness_level,
			primary_goals = EXCLUDED.primary_goals,
			available_equipment = EXCLUDED.available_equipment,
			focus_areas = EXCLUDED.focus_areas,
			preferred_duration_minutes = EXCLUDED.preferred_duration_minutes,
			workout_frequency_per_week = EXCLUDED.workout_frequency_per_week,
			total_workouts_completed = EXCLUDED.total_workouts_completed,
			last_chat_at = EXCLUDED.last_chat_at,
			updated_at = NOW()
		 RETURNING created_at, updated_at`,
		p.UserID, p.FitnessLevel, orEmpty(p.PrimaryGoals), orEmpty(p.AvailableEquipment), orEmpty(p.FocusAreas),
		p.PreferredDurationMinutes, p.WorkoutFrequencyPerWeek, p.TotalWorkoutsCompleted, p.LastChatAt,
	).Scan(&created, &updated)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	p.CreatedAt = &created
	p.UpdatedAt = &updated
	return nil
}

// ResetProfile clears every tracked field of the user's profile.
func (db *DB) ResetProfile(ctx context.Context, userID string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE user_profiles SET fitness_level = NULL, primary_goals = '{}', available_equipment = '{}',
		 focus_areas = '{}', preferred_duration_minutes = NULL, workout_frequency_per_week = NULL,
		 total_workouts_completed = 0, last_chat_at = NULL, updated_at = NOW()
		 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("resetting profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
