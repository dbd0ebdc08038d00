package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/storage"
)

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	workouts, err := h.ds.ListWorkouts(ctx, uid)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, filterWorkouts(workouts, start, end, ""))
}

func (h *handlers) profile(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p, err := h.ds.GetProfile(ctx, UserIDFromContext(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		// Nothing learned yet; an empty profile reads better than an error.
		p = &models.Profile{UserID: UserIDFromContext(ctx), PrimaryGoals: []string{}, AvailableEquipment: []string{}, FocusAreas: []string{}}
	} else if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, p)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
