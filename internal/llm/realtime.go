package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	RealtimeModel = "gpt-4o-realtime-preview-2024-12-17"
	RealtimeVoice = "echo"
)

// TurnDetection selects how the realtime API decides the user has stopped talking.
type TurnDetection struct {
	Type string `json:"type"`
}

// Transcription configures input audio transcription.
type Transcription struct {
	Model string `json:"model"`
}

// Tool is a function the realtime model may call.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// SessionConfig is the realtime session configuration, used both when
// minting a credential and in session.update events.
type SessionConfig struct {
	Model                   string         `json:"model,omitempty"`
	Instructions            string         `json:"instructions,omitempty"`
	Voice                   string         `json:"voice,omitempty"`
	TurnDetection           *TurnDetection `json:"turn_detection,omitempty"`
	InputAudioTranscription *Transcription `json:"input_audio_transcription,omitempty"`
	Tools                   []Tool         `json:"tools,omitempty"`
}

// ClientSecret is the ephemeral key handed to the browser.
type ClientSecret struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}

// RealtimeSession is the provider's answer to a session request.
type RealtimeSession struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Voice        string       `json:"voice,omitempty"`
	ClientSecret ClientSecret `json:"client_secret"`
}

// CreateRealtimeSession mints an ephemeral realtime credential. Missing
// model and voice default to RealtimeModel and RealtimeVoice.
func (c *Client) CreateRealtimeSession(ctx context.Context, cfg SessionConfig) (*RealtimeSession, error) {
	if cfg.Model == "" {
		cfg.Model = RealtimeModel
	}
	if cfg.Voice == "" {
		cfg.Voice = RealtimeVoice
	}

	body, err := c.post(ctx, "/realtime/sessions", cfg)
	if err != nil {
		return nil, err
	}

	var sess RealtimeSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("llm: decoding realtime session: %w", err)
	}
	if sess.ClientSecret.Value == "" {
		return nil, fmt.Errorf("llm: realtime session without client secret")
	}
	return &sess, nil
}
