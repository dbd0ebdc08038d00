package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Mem0 is a Store backed by the hosted Mem0 API.
type Mem0 struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: Mem0 satisfies Store.
var _ Store = (*Mem0)(nil)

// NewMem0 creates a Mem0 client targeting baseURL.
func NewMem0(baseURL, apiKey string) *Mem0 {
	return &Mem0{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type mem0Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type addRequest struct {
	Messages []mem0Message  `json:"messages"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

// Add stores one fact as a user message.
func (m *Mem0) Add(ctx context.Context, userID string, f Fact) error {
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := m.post(ctx, "/v1/memories/", addRequest{
		Messages: []mem0Message{{Role: "user", Content: f.Text}},
		UserID:   userID,
		Metadata: map[string]any{"type": f.Kind, "timestamp": created.UTC().Format(time.RFC3339)},
	})
	return err
}

// Search returns the user's facts relevant to query.
func (m *Mem0) Search(ctx context.Context, userID, query string) ([]Record, error) {
	body, err := m.post(ctx, "/v1/memories/search/", searchRequest{Query: query, UserID: userID})
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// decodeRecords accepts a bare array or an object wrapping the array in
// "results" or "memories". Anything else yields no records.
func decodeRecords(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var recs []Record
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, fmt.Errorf("mem0: decoding records: %w", err)
		}
		return recs, nil
	}
	var wrapped struct {
		Results  []Record `json:"results"`
		Memories []Record `json:"memories"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("mem0: decoding records: %w", err)
	}
	if wrapped.Results != nil {
		return wrapped.Results, nil
	}
	return wrapped.Memories, nil
}

func (m *Mem0) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mem0: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mem0: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mem0: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mem0: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mem0: %s returned %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}
