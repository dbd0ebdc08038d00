package models

import "time"

type ChatStatus string

const (
	ChatActive    ChatStatus = "active"
	ChatCompleted ChatStatus = "completed"
	ChatArchived  ChatStatus = "archived"
)

type Sender string

const (
	SenderUser  Sender = "user"
	SenderLogan Sender = "logan"
)

type MessageType string

const (
	MessageText             MessageType = "text"
	MessageWorkoutGenerated MessageType = "workout_generated"
	MessageSystem           MessageType = "system"
)

// Chat is one conversation between a user and Logan.
type Chat struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Title            string     `json:"title,omitempty"`
	Status           ChatStatus `json:"status"`
	WorkoutGenerated bool       `json:"workout_generated"`
	WorkoutID        string     `json:"workout_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Message is a single chat turn.
type Message struct {
	ID          string      `json:"id"`
	ChatID      string      `json:"chat_id"`
	UserID      string      `json:"user_id"`
	Sender      Sender      `json:"sender"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type"`
	CreatedAt   time.Time   `json:"created_at"`
}
