package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// searchLimit caps how many facts a local search returns.
const searchLimit = 100

// SQLite is a Store kept in a local SQLite file. It has no semantic
// index: Search returns the user's most recent facts, oldest first, so a
// newer fact about the same field is read last.
type SQLite struct {
	db *sqlx.DB
}

// Compile-time check: SQLite satisfies Store.
var _ Store = (*SQLite)(nil)

type factRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Text      string `db:"text"`
	CreatedAt string `db:"created_at"`
}

// OpenSQLite opens (or creates) the memory database at path. ":memory:"
// opens a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating memory dir: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening memory db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS memories (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		user_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		text       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err == nil {
		_, err = db.Exec(`CREATE INDEX IF NOT EXISTS memories_user_seq ON memories (user_id, seq)`)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating memories table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Add stores one fact.
func (s *SQLite) Add(ctx context.Context, userID string, f Fact) error {
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, kind, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, f.Kind, f.Text, created.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}
	return nil
}

// Search returns the user's latest facts. query is ignored.
func (s *SQLite) Search(ctx context.Context, userID, _ string) ([]Record, error) {
	var rows []factRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, kind, text, created_at FROM (
			SELECT seq, id, kind, text, created_at FROM memories
			WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		userID, searchLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching memories: %w", err)
	}

	recs := make([]Record, len(rows))
	for i, r := range rows {
		recs[i] = Record{
			ID:        r.ID,
			Memory:    r.Text,
			Metadata:  map[string]any{"type": r.Kind},
			CreatedAt: r.CreatedAt,
		}
	}
	return recs, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
