package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means no API key was configured.
	ErrNotConfigured = errors.New("llm: api key not configured")
	// ErrEmptyCompletion means the provider answered without any content.
	ErrEmptyCompletion = errors.New("llm: no response from AI")
)

// UpstreamError is a non-success answer from the provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm: upstream returned %d: %s", e.StatusCode, e.Body)
}

const (
	MsgNotConfigured = "OpenAI API key not configured. Please check your configuration."
	MsgUnauthorized  = "Invalid OpenAI API key. Please check your API key."
	MsgRateLimited   = "Rate limit exceeded. Please wait a moment and try again."
	MsgUnavailable   = "OpenAI service error. Please try again later."
)

// UserMessage maps err to the text shown to the user. Errors without a
// dedicated message get fallback.
func UserMessage(err error, fallback string) string {
	if errors.Is(err, ErrNotConfigured) {
		return MsgNotConfigured
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		switch {
		case up.StatusCode == 401:
			return MsgUnauthorized
		case up.StatusCode == 429:
			return MsgRateLimited
		case up.StatusCode >= 500:
			return MsgUnavailable
		}
	}
	return fallback
}
