package intent

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/logancoach/logan/internal/models"
)

// TestUpdateFullMessage verifies a single message can fill level, goals,
// time and equipment at once and flips HasEnoughInfo.
func TestUpdateFullMessage(t *testing.T) {
	got := Update(Intent{}, "I'm a total beginner, want to lose weight, have 30 minutes and just bodyweight")
	want := Intent{
		FitnessLevel:  "beginner",
		Goals:         "weight loss",
		TimeAvailable: "30",
		Equipment:     "bodyweight only",
		HasEnoughInfo: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Update mismatch (-want +got):\n%s", diff)
	}
}

// TestUpdateFirstRuleWins verifies competing keywords in one message resolve
// by rule order, not by position in the message.
func TestUpdateFirstRuleWins(t *testing.T) {
	got := Update(Intent{}, "I used to be advanced but now I'm basically a beginner")
	if got.FitnessLevel != "beginner" {
		t.Errorf("fitnessLevel = %q, want beginner", got.FitnessLevel)
	}

	got = Update(Intent{}, "no gym, I only have dumbbells")
	if got.Equipment != "bodyweight only" {
		t.Errorf("equipment = %q, want bodyweight only", got.Equipment)
	}
}

// TestUpdateLastTurnWins verifies a later message overwrites a field when a
// new rule matches.
func TestUpdateLastTurnWins(t *testing.T) {
	in := Update(Intent{}, "I'm a beginner")
	in = Update(in, "actually I'm pretty advanced")
	if in.FitnessLevel != "advanced" {
		t.Errorf("fitnessLevel = %q, want advanced", in.FitnessLevel)
	}
}

// TestUpdateTime verifies keyword times, the numeric override, and hour conversion.
func TestUpdateTime(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"I only have half an hour", "30"},
		{"just a quick workout please", "20"},
		{"I'd like a long workout today", "60"},
		{"a quick workout, maybe 45 minutes", "45"},
		{"I have 2 hours", "120"},
		{"1 hr tops", "60"},
		{"around 25 mins", "25"},
		{"I can train for an hour", "60"},
	}
	for _, tt := range tests {
		got := Update(Intent{}, tt.msg)
		if got.TimeAvailable != tt.want {
			t.Errorf("Update(%q).timeAvailable = %q, want %q", tt.msg, got.TimeAvailable, tt.want)
		}
	}
}

// TestUpdateFocusAndFrequency verifies the focus and weekly frequency tables.
func TestUpdateFocusAndFrequency(t *testing.T) {
	got := Update(Intent{}, "I want to work my legs three days a week")
	if got.FocusAreas != "lower body" {
		t.Errorf("focusAreas = %q, want lower body", got.FocusAreas)
	}
	if got.WorkoutFrequency != "3" {
		t.Errorf("workoutFrequency = %q, want 3", got.WorkoutFrequency)
	}

	got = Update(Intent{}, "core work, twice a week")
	if got.FocusAreas != "core" || got.WorkoutFrequency != "2" {
		t.Errorf("got focus=%q frequency=%q, want core/2", got.FocusAreas, got.WorkoutFrequency)
	}
}

// TestUpdateGenericGoalFillsOnly verifies generic workout words set a goal
// only when none is known yet.
func TestUpdateGenericGoalFillsOnly(t *testing.T) {
	in := Update(Intent{}, "I need a workout")
	if in.Goals != "general fitness" {
		t.Fatalf("goals = %q, want general fitness", in.Goals)
	}

	in = Update(Intent{}, "I want to build muscle")
	in = Update(in, "what workout should I do?")
	if in.Goals != "muscle building" {
		t.Errorf("goals = %q, want muscle building kept", in.Goals)
	}
}

// TestUpdateNoKeywords verifies an unrelated message leaves the intent as is.
func TestUpdateNoKeywords(t *testing.T) {
	prev := Update(Intent{}, "beginner, lose weight, 20 minutes")
	got := Update(prev, "sounds great, thanks!")
	if diff := cmp.Diff(prev, got); diff != "" {
		t.Errorf("intent changed (-want +got):\n%s", diff)
	}
}

// TestUpdateWordBoundaries verifies phrases do not match inside other words.
func TestUpdateWordBoundaries(t *testing.T) {
	got := Update(Intent{}, "I need to execute my plan with a stone in my pocket")
	if got.Goals != "" {
		t.Errorf("goals = %q, want empty", got.Goals)
	}
	got = Update(Intent{}, "I'm fairly inexperienced")
	if got.FitnessLevel != "beginner" {
		t.Errorf("fitnessLevel = %q, want beginner", got.FitnessLevel)
	}
}

// TestHasEnoughInfo verifies the readiness predicate.
func TestHasEnoughInfo(t *testing.T) {
	tests := []struct {
		name string
		in   Intent
		want bool
	}{
		{"empty", Intent{}, false},
		{"goal only", Intent{Goals: "weight loss"}, false},
		{"goal and level", Intent{Goals: "weight loss", FitnessLevel: "beginner"}, true},
		{"goal and time", Intent{Goals: "weight loss", TimeAvailable: "30"}, true},
		{"goal and equipment", Intent{Goals: "weight loss", Equipment: "full gym"}, true},
		{"level and time", Intent{FitnessLevel: "advanced", TimeAvailable: "45"}, true},
		{"level only", Intent{FitnessLevel: "advanced"}, false},
		{"focus and frequency", Intent{FocusAreas: "core", WorkoutFrequency: "3"}, false},
	}
	for _, tt := range tests {
		if got := tt.in.enough(); got != tt.want {
			t.Errorf("%s: enough() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestHasEnoughInfoMonotonic feeds random message sequences and verifies
// HasEnoughInfo never goes from true back to false.
func TestHasEnoughInfoMonotonic(t *testing.T) {
	corpus := []string{
		"hello", "I'm a beginner", "I want to lose weight", "30 minutes", "at the gym",
		"thanks", "upper body", "3 days a week", "what do you think?", "actually advanced",
		"cardio please", "no equipment", "ok", "1 hour", "I want to bulk",
	}
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		var in Intent
		seenTrue := false
		for i := 0; i < 8; i++ {
			in = Update(in, corpus[rng.Intn(len(corpus))])
			if seenTrue && !in.HasEnoughInfo {
				t.Fatalf("run %d: HasEnoughInfo flipped back to false: %+v", run, in)
			}
			seenTrue = seenTrue || in.HasEnoughInfo
		}
	}
}

// TestChanged verifies the per-field diff used to skip redundant profile writes.
func TestChanged(t *testing.T) {
	prev := Intent{FitnessLevel: "beginner", Goals: "weight loss"}
	next := Intent{FitnessLevel: "beginner", Goals: "muscle building", TimeAvailable: "45"}
	got := Changed(prev, next)
	want := []Field{FieldGoals, FieldTime}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Changed mismatch (-want +got):\n%s", diff)
	}
	if got := Changed(prev, prev); len(got) != 0 {
		t.Errorf("Changed(prev, prev) = %v, want none", got)
	}
}

// TestMissingOrder verifies missing fields come back in canonical order.
func TestMissingOrder(t *testing.T) {
	got := Intent{Goals: "cardio fitness", Equipment: "dumbbells"}.Missing()
	want := []Field{FieldLevel, FieldTime, FieldFocus, FieldFrequency}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
}

// TestWithDefaults verifies generation defaults only fill empty fields.
func TestWithDefaults(t *testing.T) {
	got := Intent{Goals: "strength training"}.WithDefaults()
	if got.FitnessLevel != "beginner" || got.TimeAvailable != "30" || got.Equipment != "bodyweight only" {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.Goals != "strength training" {
		t.Errorf("goals = %q, want strength training kept", got.Goals)
	}
}

// TestProfileMapping verifies intent values map onto the stored vocabulary
// and back.
func TestProfileMapping(t *testing.T) {
	in := Intent{
		FitnessLevel:     "intermediate",
		Goals:            "cardio fitness",
		TimeAvailable:    "45",
		Equipment:        "full gym",
		FocusAreas:       "core",
		WorkoutFrequency: "4",
	}
	var p models.Profile
	ApplyToProfile(&p, in)

	if diff := cmp.Diff([]string{"endurance"}, p.PrimaryGoals); diff != "" {
		t.Errorf("primary_goals (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gym"}, p.AvailableEquipment); diff != "" {
		t.Errorf("available_equipment (-want +got):\n%s", diff)
	}
	if p.PreferredDurationMinutes == nil || *p.PreferredDurationMinutes != 45 {
		t.Errorf("preferred_duration_minutes = %v, want 45", p.PreferredDurationMinutes)
	}

	back := FromProfile(p)
	in.HasEnoughInfo = true
	if diff := cmp.Diff(in, back); diff != "" {
		t.Errorf("FromProfile mismatch (-want +got):\n%s", diff)
	}
}
