package storage

import (
	"context"
	"errors"
	"time"

	"github.com/logancoach/logan/internal/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// WorkoutRepository stores workouts and their ordered exercises.
type WorkoutRepository interface {
	ListWorkouts(ctx context.Context, userID string) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID, id string) (*models.Workout, error)
	// CreateWorkout assigns missing workout and exercise IDs and stamps
	// created_at/updated_at on w.
	CreateWorkout(ctx context.Context, w *models.Workout) error
	// CreateWorkouts stores all of ws atomically, filling IDs and
	// timestamps in place.
	CreateWorkouts(ctx context.Context, ws []models.Workout) error
	// UpdateWorkout replaces the workout row and its exercises.
	UpdateWorkout(ctx context.Context, w *models.Workout) error
	DeleteWorkout(ctx context.Context, userID, id string) error
	UpdateExerciseProgress(ctx context.Context, exerciseID string, p models.ExerciseProgress) error
	WorkoutStats(ctx context.Context, userID string) (*WorkoutStats, error)
}

// ProfileRepository stores fitness profiles keyed by user ID.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
	ResetProfile(ctx context.Context, userID string) error
}

// ChatRepository stores conversations and their messages.
type ChatRepository interface {
	// ActiveChat returns the user's most recently updated active chat,
	// creating one when there is none.
	ActiveChat(ctx context.Context, userID string) (*models.Chat, error)
	GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error)
	AddMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error)
	// LinkWorkout marks one of userID's chats as having produced workoutID.
	LinkWorkout(ctx context.Context, userID, chatID, workoutID string) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	WorkoutRepository
	ProfileRepository
	ChatRepository
	Close()
}

// WorkoutStats summarises a user's workouts.
type WorkoutStats struct {
	TotalWorkouts  int64             `json:"total_workouts"`
	ByStatus       map[string]int64  `json:"by_status"`
	CompletedSets  int64             `json:"completed_sets"`
	EarliestDate   string            `json:"earliest_date,omitempty"`
	LatestDate     string            `json:"latest_date,omitempty"`
	WorkoutsByType []WorkoutTypeStat `json:"workouts_by_type"`
}

// WorkoutTypeStat holds summary stats for a single workout type.
type WorkoutTypeStat struct {
	Type          string `json:"type"`
	Count         int64  `json:"count"`
	TotalDuration int64  `json:"total_duration_minutes"`
}

func chatTitle(t time.Time) string {
	return "Chat " + t.Format("1/2/2006")
}
