// Package memory remembers facts about users across conversations. Facts
// are short sentences ("User's fitness level is beginner") kept in a
// hosted Mem0 account or a local SQLite file and parsed back into a
// profile when a new conversation starts.
package memory

import (
	"context"
	"time"
)

// Kinds of stored facts.
const (
	KindPreference   = "fitness_preference"
	KindConversation = "conversation"
)

// DefaultQuery is the search used to rebuild a user's profile.
const DefaultQuery = "fitness preferences workout goals equipment time"

// Fact is one sentence to remember about a user.
type Fact struct {
	Text      string
	Kind      string
	CreatedAt time.Time
}

// Record is a remembered fact as returned by a search. Mem0 puts the
// sentence in "memory"; older payloads use "text".
type Record struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory,omitempty"`
	Text      string         `json:"text,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// Content returns the fact sentence.
func (r Record) Content() string {
	if r.Memory != "" {
		return r.Memory
	}
	return r.Text
}

// Store persists and searches facts.
type Store interface {
	Add(ctx context.Context, userID string, f Fact) error
	Search(ctx context.Context, userID, query string) ([]Record, error)
}
