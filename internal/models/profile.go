package models

import "time"

// Profile is the persisted fitness profile of a user.
type Profile struct {
	UserID                   string     `json:"id"`
	FitnessLevel             string     `json:"fitness_level,omitempty"`
	PrimaryGoals             []string   `json:"primary_goals"`
	AvailableEquipment       []string   `json:"available_equipment"`
	FocusAreas               []string   `json:"focus_areas"`
	PreferredDurationMinutes *int       `json:"preferred_duration_minutes,omitempty"`
	WorkoutFrequencyPerWeek  *int       `json:"workout_frequency_per_week,omitempty"`
	TotalWorkoutsCompleted   int        `json:"total_workouts_completed"`
	LastChatAt               *time.Time `json:"last_chat_at,omitempty"`
	CreatedAt                *time.Time `json:"created_at,omitempty"`
	UpdatedAt                *time.Time `json:"updated_at,omitempty"`
}

// Reset returns the profile to its initial state, keeping only identity
// and creation time.
func (p *Profile) Reset() {
	p.FitnessLevel = ""
	p.PrimaryGoals = []string{}
	p.AvailableEquipment = []string{}
	p.FocusAreas = []string{}
	p.PreferredDurationMinutes = nil
	p.WorkoutFrequencyPerWeek = nil
	p.TotalWorkoutsCompleted = 0
	p.LastChatAt = nil
}
