package mcp

import (
	"context"

	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both storage.Store
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context, userID string) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID, id string) (*models.Workout, error)
	WorkoutStats(ctx context.Context, userID string) (*storage.WorkoutStats, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*storage.MemoryStore)(nil)
)
