package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/logancoach/logan/internal/models"
)

// WorkoutStats returns aggregate statistics for a user's workouts.
func (db *DB) WorkoutStats(ctx context.Context, userID string) (*WorkoutStats, error) {
	stats := &WorkoutStats{ByStatus: map[string]int64{}, WorkoutsByType: []WorkoutTypeStat{}}

	// Totals and date range
	var earliest, latest *time.Time
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(scheduled_date), MAX(scheduled_date) FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}
	if earliest != nil {
		stats.EarliestDate = earliest.Format(models.DateLayout)
	}
	if latest != nil {
		stats.LatestDate = latest.Format(models.DateLayout)
	}

	// Completed sets across all sessions
	err = db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(e.actual_sets), 0) FROM exercises e
		 JOIN workouts w ON w.id = e.workout_id
		 WHERE w.user_id = $1`, userID,
	).Scan(&stats.CompletedSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	// Workouts by status
	rows, err := db.Pool.Query(ctx,
		`SELECT status, COUNT(*) FROM workouts WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by status: %w", err)
	}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.ByStatus[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Workouts by type
	rows, err = db.Pool.Query(ctx,
		`SELECT COALESCE(NULLIF(workout_type, ''), 'general'), COUNT(*), COALESCE(SUM(duration_minutes), 0)
		 FROM workouts
		 WHERE user_id = $1
		 GROUP BY 1
		 ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s WorkoutTypeStat
		if err := rows.Scan(&s.Type, &s.Count, &s.TotalDuration); err != nil {
			return nil, fmt.Errorf("scanning workout type stat: %w", err)
		}
		stats.WorkoutsByType = append(stats.WorkoutsByType, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
