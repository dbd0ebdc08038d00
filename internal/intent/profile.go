package intent

import (
	"strconv"

	"github.com/logancoach/logan/internal/models"
)

var goalCodes = map[string]string{
	"weight loss":       "weight_loss",
	"muscle building":   "muscle_building",
	"strength training": "strength",
	"cardio fitness":    "endurance",
	"general fitness":   "general_fitness",
}

var equipmentCodes = map[string]string{
	"bodyweight only":  "bodyweight",
	"full gym":         "gym",
	"dumbbells":        "dumbbells",
	"resistance bands": "resistance_bands",
}

// ApplyToProfile writes the known fields of in onto p using the stored
// profile vocabulary. Empty fields leave p unchanged.
func ApplyToProfile(p *models.Profile, in Intent) {
	if in.FitnessLevel != "" {
		p.FitnessLevel = in.FitnessLevel
	}
	if in.Goals != "" {
		p.PrimaryGoals = []string{code(goalCodes, in.Goals)}
	}
	if n, err := strconv.Atoi(in.TimeAvailable); err == nil {
		p.PreferredDurationMinutes = &n
	}
	if in.Equipment != "" {
		p.AvailableEquipment = []string{code(equipmentCodes, in.Equipment)}
	}
	if in.FocusAreas != "" {
		p.FocusAreas = []string{in.FocusAreas}
	}
	if n, err := strconv.Atoi(in.WorkoutFrequency); err == nil {
		p.WorkoutFrequencyPerWeek = &n
	}
}

// FromProfile seeds an intent from a stored profile so a returning user does
// not have to repeat themselves.
func FromProfile(p models.Profile) Intent {
	var in Intent
	in.FitnessLevel = p.FitnessLevel
	if len(p.PrimaryGoals) > 0 {
		in.Goals = phrase(goalCodes, p.PrimaryGoals[0])
	}
	if p.PreferredDurationMinutes != nil {
		in.TimeAvailable = strconv.Itoa(*p.PreferredDurationMinutes)
	}
	if len(p.AvailableEquipment) > 0 {
		in.Equipment = phrase(equipmentCodes, p.AvailableEquipment[0])
	}
	if len(p.FocusAreas) > 0 {
		in.FocusAreas = p.FocusAreas[0]
	}
	if p.WorkoutFrequencyPerWeek != nil {
		in.WorkoutFrequency = strconv.Itoa(*p.WorkoutFrequencyPerWeek)
	}
	in.HasEnoughInfo = in.enough()
	return in
}

func code(m map[string]string, v string) string {
	if c, ok := m[v]; ok {
		return c
	}
	return v
}

func phrase(m map[string]string, c string) string {
	for k, v := range m {
		if v == c {
			return k
		}
	}
	return c
}
