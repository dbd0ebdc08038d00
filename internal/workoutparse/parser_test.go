package workoutparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/logancoach/logan/internal/models"
)

func newTestParser(buf *bytes.Buffer) *Parser {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	p := New(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	p.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }
	p.newID = func() string { return "generated-id" }
	return p
}

// TestParseRoundTrip verifies a valid workout serialized as plain JSON parses
// back to a structurally equal workout.
func TestParseRoundTrip(t *testing.T) {
	in := models.Workout{
		ID:       "w-1",
		Name:     "Leg Day",
		Date:     "2025-05-30",
		Duration: 45,
		Notes:    "Stay hydrated",
		Exercises: []models.Exercise{
			{Name: "Squat", Sets: 4, Reps: 8, Weight: 135, Notes: "Depth"},
			{Name: "Lunge", Sets: 3, Reps: 12, Weight: 0, Notes: ""},
		},
		Status: models.StatusProposed,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	got, err := newTestParser(nil).Parse(string(data), Request{DurationMinutes: 45})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(in, *got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestParseRepairsQuotedUnits verifies numeric values quoted with units are
// repaired on the second attempt.
func TestParseRepairsQuotedUnits(t *testing.T) {
	raw := `{"name":"A","exercises":[{"name":"Squat","sets":3,"reps":"10 reps","weight":0}]}`
	got, err := newTestParser(nil).Parse(raw, Request{DurationMinutes: 20})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Exercises[0].Reps != 10 {
		t.Errorf("reps = %d, want 10", got.Exercises[0].Reps)
	}
}

// TestParseRepairFixesInvalidJSON verifies the repair pass rescues text that
// only fails to parse because a quoted unit value is wrapped in extra quotes,
// and that other syntax errors stay fatal.
func TestParseRepairFixesInvalidJSON(t *testing.T) {
	raw := `{"name":"Plank Day","exercises":[{"name":"Plank","sets":3,"reps":""30 seconds""}]}`
	got, err := newTestParser(nil).Parse(raw, Request{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Exercises[0].Reps != 30 {
		t.Errorf("reps = %d, want 30", got.Exercises[0].Reps)
	}

	raw = `{"name":"Plank Day","exercises":[{"name":"Plank","sets":3,"reps":"30 seconds"},]}`
	if _, err := newTestParser(nil).Parse(raw, Request{}); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("trailing comma err = %v, want ErrMalformedResponse", err)
	}
}

// TestParseStripsProse verifies leading and trailing prose around the JSON
// object is discarded.
func TestParseStripsProse(t *testing.T) {
	raw := "Sure! Here is your workout:\n```json\n{\"name\":\"Push\",\"exercises\":[]}\n```\nEnjoy!"
	got, err := newTestParser(nil).Parse(raw, Request{DurationMinutes: 30})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Name != "Push" {
		t.Errorf("name = %q, want Push", got.Name)
	}
	if len(got.Exercises) != 0 {
		t.Errorf("exercises = %d, want 0", len(got.Exercises))
	}
}

// TestParseMalformed verifies unrepairable text yields MalformedResponse with
// diagnostics attached.
func TestParseMalformed(t *testing.T) {
	var buf bytes.Buffer
	_, err := newTestParser(&buf).Parse("I'm sorry, I can't do that.", Request{})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err is not a *ParseError: %T", err)
	}
	if pe.Raw != "I'm sorry, I can't do that." {
		t.Errorf("raw = %q", pe.Raw)
	}
	if pe.Cleaned == "" {
		t.Error("cleaned text missing")
	}
	if errors.Is(err, ErrInvalidStructure) {
		t.Error("malformed error also matches ErrInvalidStructure")
	}
	if !strings.Contains(buf.String(), "could not parse workout JSON") {
		t.Errorf("failure not logged: %q", buf.String())
	}
}

// TestParseInvalidStructure verifies JSON without a name or exercises array
// is rejected as InvalidStructure.
func TestParseInvalidStructure(t *testing.T) {
	tests := []string{
		`{"exercises":[]}`,
		`{"name":"","exercises":[]}`,
		`{"name":"X"}`,
		`{"name":"X","exercises":"squats"}`,
	}
	for _, raw := range tests {
		_, err := newTestParser(nil).Parse(raw, Request{})
		if !errors.Is(err, ErrInvalidStructure) {
			t.Errorf("Parse(%s) err = %v, want ErrInvalidStructure", raw, err)
		}
	}
}

// TestParseDefaults verifies an empty exercise object normalizes to defaults
// and missing metadata is filled in.
func TestParseDefaults(t *testing.T) {
	got, err := newTestParser(nil).Parse(`{"name":"X","exercises":[{}]}`, Request{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := models.Exercise{Name: "Unknown Exercise", Sets: 3, Reps: 10, Weight: 0, Notes: ""}
	if diff := cmp.Diff(want, got.Exercises[0]); diff != "" {
		t.Errorf("exercise mismatch (-want +got):\n%s", diff)
	}
	if got.ID != "generated-id" {
		t.Errorf("id = %q, want generated-id", got.ID)
	}
	if got.Date != "2025-06-02" {
		t.Errorf("date = %q, want 2025-06-02", got.Date)
	}
	if got.Duration != 30 {
		t.Errorf("duration = %d, want 30", got.Duration)
	}
	if got.Completed || got.Status != models.StatusProposed {
		t.Errorf("completed=%v status=%q, want false/proposed", got.Completed, got.Status)
	}
}

// TestParseLenientCoercion verifies non-numeric values fall back silently and
// numeric strings are read up to the first non-digit.
func TestParseLenientCoercion(t *testing.T) {
	raw := `{"name":"X","exercises":[
		{"name":"A","sets":"four","reps":"12-15","weight":"25.5 lbs"},
		{"name":"B","sets":0,"reps":-3,"weight":-10},
		{"name":"C","sets":2.9,"reps":true,"weight":null},
		"not an object"
	]}`
	got, err := newTestParser(nil).Parse(raw, Request{DurationMinutes: 60})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []models.Exercise{
		{Name: "A", Sets: 3, Reps: 12, Weight: 25.5},
		{Name: "B", Sets: 3, Reps: 10, Weight: 0},
		{Name: "C", Sets: 2, Reps: 10, Weight: 0},
		{Name: "Unknown Exercise", Sets: 3, Reps: 10},
	}
	if diff := cmp.Diff(want, got.Exercises); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}
	if got.Duration != 60 {
		t.Errorf("duration = %d, want 60", got.Duration)
	}
}

// TestParseRequestDurationWins verifies the duration always comes from the request.
func TestParseRequestDurationWins(t *testing.T) {
	got, err := newTestParser(nil).Parse(`{"name":"X","duration":90,"exercises":[]}`, Request{DurationMinutes: 20})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Duration != 20 {
		t.Errorf("duration = %d, want 20", got.Duration)
	}
}

// TestParsePlan verifies weekly plans are normalized per day and carry the
// request metadata; a day-count mismatch is logged but accepted.
func TestParsePlan(t *testing.T) {
	raw := `Here you go {"name":"Plan","description":"d","weeklyPlan":[
		{"day":"Monday","focus":"Upper Body","workout":{"name":"Push","exercises":[{"name":"Press","sets":"3","reps":"8 reps"}]}},
		{"day":"Thursday","focus":"Lower Body","workout":{"name":"Legs","exercises":[{}]}}
	],"notes":"n"}`
	var buf bytes.Buffer
	req := PlanRequest{FitnessLevel: "beginner", Goals: "strength training", WorkoutFrequency: "3", TimeAvailable: "45", Equipment: "full gym", FocusAreas: "full body"}

	plan, err := newTestParser(&buf).ParsePlan(raw, req)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if len(plan.WeeklyPlan) != 2 {
		t.Fatalf("days = %d, want 2", len(plan.WeeklyPlan))
	}
	if got := plan.WeeklyPlan[0].Workout.Exercises[0]; got.Sets != 3 || got.Reps != 8 {
		t.Errorf("day 1 exercise = %+v, want 3x8", got)
	}
	if got := plan.WeeklyPlan[1].Workout.Exercises[0].Name; got != "Unknown Exercise" {
		t.Errorf("day 2 exercise name = %q", got)
	}
	if plan.Date != "2025-06-02" || plan.WorkoutFrequency != "3" || plan.Equipment != "full gym" {
		t.Errorf("metadata = %+v", plan)
	}
	if !strings.Contains(buf.String(), "differs from requested frequency") {
		t.Errorf("mismatch not logged: %q", buf.String())
	}
}

// TestParsePlanInvalid verifies an empty or missing weeklyPlan is rejected.
func TestParsePlanInvalid(t *testing.T) {
	for _, raw := range []string{`{"name":"P","weeklyPlan":[]}`, `{"name":"P"}`, `{"weeklyPlan":[{}]}`} {
		_, err := newTestParser(nil).ParsePlan(raw, PlanRequest{})
		if !errors.Is(err, ErrInvalidStructure) {
			t.Errorf("ParsePlan(%s) err = %v, want ErrInvalidStructure", raw, err)
		}
	}
}

// TestMinutes verifies requested times convert with a 30 minute fallback.
func TestMinutes(t *testing.T) {
	tests := map[string]int{"45": 45, "20 minutes": 20, "": 30, "soon": 30, "0": 30}
	for in, want := range tests {
		if got := Minutes(in); got != want {
			t.Errorf("Minutes(%q) = %d, want %d", in, got, want)
		}
	}
}
