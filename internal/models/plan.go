package models

// PlanWorkout is the workout body of a single plan day.
type PlanWorkout struct {
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	Notes     string     `json:"notes"`
}

// PlanDay is one training day of a weekly plan.
type PlanDay struct {
	Day     string      `json:"day"`
	Focus   string      `json:"focus"`
	Workout PlanWorkout `json:"workout"`
}

// WeeklyPlan is a multi-day plan plus the parameters it was generated from.
type WeeklyPlan struct {
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	WeeklyPlan       []PlanDay `json:"weeklyPlan"`
	Notes            string    `json:"notes"`
	Date             string    `json:"date"`
	FitnessLevel     string    `json:"fitnessLevel"`
	Goals            string    `json:"goals"`
	WorkoutFrequency string    `json:"workoutFrequency"`
	TimeAvailable    string    `json:"timeAvailable"`
	Equipment        string    `json:"equipment"`
	FocusAreas       string    `json:"focusAreas"`
}
