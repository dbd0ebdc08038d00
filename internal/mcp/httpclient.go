package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/storage"
)

// HTTPClient implements DataSource by calling the Logan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The server identifies the caller from
// the bearer token, so the userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. token
// may be empty when the server runs without token auth.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, _ string) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := c.get(ctx, "/workouts", &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, _ string, id string) (*models.Workout, error) {
	if id == "" {
		return nil, errors.New("httpclient: empty workout id")
	}
	var w models.Workout
	if err := c.get(ctx, "/workouts/"+url.PathEscape(id), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) WorkoutStats(ctx context.Context, _ string) (*storage.WorkoutStats, error) {
	var stats storage.WorkoutStats
	if err := c.get(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, _ string) (*models.Profile, error) {
	var p models.Profile
	if err := c.get(ctx, "/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}
