package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/logancoach/logan/internal/models"
)

const chatColumns = `id, user_id, title, status, workout_generated, COALESCE(workout_id, ''), created_at, updated_at`

func scanChat(row pgx.CollectableRow) (models.Chat, error) {
	var c models.Chat
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Status, &c.WorkoutGenerated, &c.WorkoutID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ActiveChat returns the user's latest active chat, creating one if needed.
func (db *DB) ActiveChat(ctx context.Context, userID string) (*models.Chat, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+chatColumns+` FROM chats
		 WHERE user_id = $1 AND status = 'active'
		 ORDER BY updated_at DESC LIMIT 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying active chat: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanChat)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scanning chat: %w", err)
	}

	c = models.Chat{ID: uuid.NewString(), UserID: userID, Title: chatTitle(time.Now()), Status: models.ChatActive}
	err = db.Pool.QueryRow(ctx,
		`INSERT INTO chats (id, user_id, title, status) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Title, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	return &c, nil
}

// GetChat returns one of the user's chats.
func (db *DB) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanChat)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning chat: %w", err)
	}
	return &c, nil
}

// AddMessage appends a message and bumps the chat's updated_at.
func (db *DB) AddMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MessageType == "" {
		m.MessageType = models.MessageText
	}

	b := &pgx.Batch{}
	b.Queue(`INSERT INTO messages (id, chat_id, user_id, sender, content, message_type)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		m.ID, m.ChatID, m.UserID, m.Sender, m.Content, m.MessageType,
	).QueryRow(func(row pgx.Row) error {
		return row.Scan(&m.CreatedAt)
	})
	b.Queue(`UPDATE chats SET updated_at = NOW() WHERE id = $1`, m.ChatID)

	if err := db.Pool.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// ListMessages returns a chat's messages in the order they were written.
func (db *DB) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, chat_id, user_id, sender, content, message_type, created_at
		 FROM messages
		 WHERE chat_id = $1 AND user_id = $2
		 ORDER BY created_at ASC`, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Message, error) {
		var m models.Message
		err := row.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Sender, &m.Content, &m.MessageType, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning messages: %w", err)
	}
	return msgs, nil
}

// LinkWorkout records that a workout was generated from the chat.
func (db *DB) LinkWorkout(ctx context.Context, userID, chatID, workoutID string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE chats SET workout_generated = TRUE, workout_id = $2, updated_at = NOW()
		 WHERE id = $1 AND user_id = $3`,
		chatID, workoutID, userID)
	if err != nil {
		return fmt.Errorf("linking workout to chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
