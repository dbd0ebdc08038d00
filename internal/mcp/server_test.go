package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/logancoach/logan/internal/intent"
	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/storage"
	"github.com/logancoach/logan/internal/workoutparse"
)

func newTestHandlers(t *testing.T) (*handlers, *storage.MemoryStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	return &handlers{ds: store, parser: workoutparse.New(log), log: log}, store
}

func callTool(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), ctx context.Context, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(ctx, req)
	if err != nil {
		t.Fatalf("tool returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return tc.Text
}

// TestUserIDFromContextDefault verifies the default user ID when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	if id := UserIDFromContext(context.Background()); id != DefaultUserID {
		t.Errorf("UserIDFromContext(empty) = %q, want %q", id, DefaultUserID)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), "alice")
	if id := UserIDFromContext(ctx); id != "alice" {
		t.Errorf("UserIDFromContext = %q, want alice", id)
	}
}

// TestDateRange verifies range defaults (30 days either side) and parsing.
func TestDateRange(t *testing.T) {
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	start, end, err := dateRange("", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := end.Sub(start); got != 60*24*time.Hour {
		t.Errorf("default range = %v, want 60 days", got)
	}

	start, end, err = dateRange("2024-01-01", "2024-01-31", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format(models.DateLayout) != "2024-01-01" || end.Format(models.DateLayout) != "2024-01-31" {
		t.Errorf("range = %v..%v, want 2024-01-01..2024-01-31", start, end)
	}

	start, _, err = dateRange("2024-06-15T10:30:00Z", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	if _, _, err = dateRange("not-a-date", "", now); err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestFilterWorkouts verifies date bounds are inclusive, status filters and
// results are newest first.
func TestFilterWorkouts(t *testing.T) {
	in := []models.Workout{
		{Name: "a", Date: "2025-06-01", Status: models.StatusCompleted},
		{Name: "b", Date: "2025-06-10", Status: models.StatusProposed},
		{Name: "c", Date: "2025-05-01", Status: models.StatusCompleted},
		{Name: "d", Date: "2025-06-05", Status: models.StatusCompleted},
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	names := func(ws []models.Workout) []string {
		var out []string
		for _, w := range ws {
			out = append(out, w.Name)
		}
		return out
	}
	if diff := cmp.Diff([]string{"b", "d", "a"}, names(filterWorkouts(in, start, end, ""))); diff != "" {
		t.Errorf("all statuses (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d", "a"}, names(filterWorkouts(in, start, end, "completed"))); diff != "" {
		t.Errorf("completed only (-want +got):\n%s", diff)
	}
}

// TestGetWorkoutTool verifies workouts are scoped to the context user.
func TestGetWorkoutTool(t *testing.T) {
	h, store := newTestHandlers(t)
	w := &models.Workout{UserID: "alice", Name: "Push", Date: "2025-06-02", Exercises: []models.Exercise{{Name: "Bench", Sets: 3, Reps: 8}}}
	if err := store.CreateWorkout(context.Background(), w); err != nil {
		t.Fatal(err)
	}

	res := callTool(t, h.getWorkout, WithUserID(context.Background(), "alice"), map[string]any{"id": w.ID})
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var got models.Workout
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "Push" || len(got.Exercises) != 1 {
		t.Errorf("workout = %+v, want Push with one exercise", got)
	}

	res = callTool(t, h.getWorkout, WithUserID(context.Background(), "bob"), map[string]any{"id": w.ID})
	if !res.IsError || resultText(t, res) != "Workout not found" {
		t.Errorf("other user's workout: error=%v text=%q, want Workout not found", res.IsError, resultText(t, res))
	}

	res = callTool(t, h.getWorkout, context.Background(), map[string]any{})
	if !res.IsError {
		t.Error("missing id should be an error result")
	}
}

// TestExtractIntentTool verifies known intent is merged with the message.
func TestExtractIntentTool(t *testing.T) {
	h, _ := newTestHandlers(t)
	res := callTool(t, h.extractIntent, context.Background(), map[string]any{
		"message": "I only have 20 minutes and some dumbbells",
		"context": `{"goals":"weight loss"}`,
	})
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var got struct {
		Context intent.Intent `json:"context"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Context.Goals != "weight loss" || got.Context.TimeAvailable != "20" || !got.Context.HasEnoughInfo {
		t.Errorf("context = %+v, want goals kept, 20 minutes and enough info", got.Context)
	}

	res = callTool(t, h.extractIntent, context.Background(), map[string]any{"message": "hi", "context": "{"})
	if !res.IsError {
		t.Error("malformed context should be an error result")
	}
}

// TestParseWorkoutTool verifies model output is repaired and defaults applied.
func TestParseWorkoutTool(t *testing.T) {
	h, _ := newTestHandlers(t)
	res := callTool(t, h.parseWorkout, context.Background(), map[string]any{
		"raw":            "Here you go!\n{\"name\":\"Core\",\"exercises\":[{\"name\":\"Plank\",\"reps\":\"30 seconds\"}]}",
		"time_available": "25",
	})
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var got models.Workout
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Duration != 25 || got.Exercises[0].Reps != 30 || got.Status != models.StatusProposed {
		t.Errorf("workout = %+v, want 25 minutes, 30 reps, proposed", got)
	}

	res = callTool(t, h.parseWorkout, context.Background(), map[string]any{"raw": "no json here"})
	if !res.IsError || resultText(t, res) != "Invalid response format from AI. Please try again." {
		t.Errorf("malformed: error=%v text=%q", res.IsError, resultText(t, res))
	}
}

// TestProfileResourceEmpty verifies a user without a profile reads an empty one.
func TestProfileResourceEmpty(t *testing.T) {
	h, _ := newTestHandlers(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = "logan://profile"

	contents, err := h.profile(WithUserID(context.Background(), "alice"), req)
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T, want TextResourceContents", contents[0])
	}
	var p models.Profile
	if err := json.Unmarshal([]byte(tc.Text), &p); err != nil {
		t.Fatal(err)
	}
	if p.UserID != "alice" || len(p.PrimaryGoals) != 0 {
		t.Errorf("profile = %+v, want empty profile for alice", p)
	}
}
