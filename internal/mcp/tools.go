package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/logancoach/logan/internal/coach"
	"github.com/logancoach/logan/internal/intent"
	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/storage"
	"github.com/logancoach/logan/internal/workoutparse"
)

// dateRange returns start/end defaulting to 30 days either side of now, so
// upcoming plan workouts are included.
func dateRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = now.AddDate(0, 0, 30)
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = now.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(models.DateLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// filterWorkouts keeps workouts dated within [start, end] whose status
// matches, newest first. An empty status matches all.
func filterWorkouts(in []models.Workout, start, end time.Time, status string) []models.Workout {
	from, to := start.Format(models.DateLayout), end.Format(models.DateLayout)
	out := []models.Workout{}
	for _, w := range in {
		if w.Date < from || w.Date > to {
			continue
		}
		if status != "" && string(w.Status) != status {
			continue
		}
		out = append(out, w)
	}
	slices.SortStableFunc(out, func(a, b models.Workout) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List the user's workouts with their exercises, newest first. Includes proposed workouts scheduled from a weekly plan."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days from now.")),
	mcp.WithString("status", mcp.Description("Only workouts in this status."), mcp.Enum("proposed", "active", "completed", "skipped")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout by ID, including recorded actual sets, reps and weight."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Summary of the user's workouts: counts by status and type, completed sets, and the date range covered."),
)

var toolGetProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("The user's fitness profile as learned from coaching chats."),
)

var toolExtractIntent = mcp.NewTool("extract_intent",
	mcp.WithDescription("Extract fitness level, goals, time, equipment, focus areas and weekly frequency from a chat message. Values already known are kept unless the message mentions them."),
	mcp.WithString("message", mcp.Required(), mcp.Description("The user's chat message")),
	mcp.WithString("context", mcp.Description("Known intent as a JSON object, e.g. {\"goals\":\"weight loss\"}")),
)

var toolComposeReply = mcp.NewTool("compose_reply",
	mcp.WithDescription("Compose Logan's next reply without calling a language model: asks for the most important missing detail or confirms readiness."),
	mcp.WithString("message", mcp.Required(), mcp.Description("The user's chat message")),
	mcp.WithString("context", mcp.Description("Known intent as a JSON object")),
)

var toolParseWorkout = mcp.NewTool("parse_workout_response",
	mcp.WithDescription("Normalise a model-generated workout: extract the JSON, repair unit strings like \"10 reps\", and fill defaults."),
	mcp.WithString("raw", mcp.Required(), mcp.Description("The raw model output")),
	mcp.WithString("time_available", mcp.Description("Requested duration in minutes. Defaults to 30.")),
)

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := dateRange(req.GetString("start", ""), req.GetString("end", ""), time.Now())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(filterWorkouts(workouts, start, end, req.GetString("status", "")))
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	w, err := h.ds.GetWorkout(ctx, UserIDFromContext(ctx), id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("Workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(w)
}

func (h *handlers) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.WorkoutStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) getProfile(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.GetProfile(ctx, UserIDFromContext(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("Profile not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_profile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) extractIntent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message parameter is required"), nil
	}
	prev, err := knownIntent(req.GetString("context", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid context: " + err.Error()), nil
	}

	next := intent.Update(prev, msg)
	return jsonResult(map[string]any{
		"context": next,
		"changed": intent.Changed(prev, next),
		"missing": next.Missing(),
	})
}

func (h *handlers) composeReply(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message parameter is required"), nil
	}
	prev, err := knownIntent(req.GetString("context", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid context: " + err.Error()), nil
	}
	return jsonResult(coach.Reply(prev, msg))
}

func (h *handlers) parseWorkout(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("raw")
	if err != nil {
		return mcp.NewToolResultError("raw parameter is required"), nil
	}

	w, err := h.parser.Parse(raw, workoutparse.Request{
		DurationMinutes: workoutparse.Minutes(req.GetString("time_available", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(coach.ErrorMessage(err, coach.FlowWorkout)), nil
	}
	return jsonResult(w)
}

func knownIntent(s string) (intent.Intent, error) {
	var in intent.Intent
	if strings.TrimSpace(s) == "" {
		return in, nil
	}
	err := json.Unmarshal([]byte(s), &in)
	return in, err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
