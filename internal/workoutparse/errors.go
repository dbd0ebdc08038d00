package workoutparse

import (
	"errors"
	"fmt"
)

// Kind classifies why an LLM response could not be turned into a workout.
type Kind int

const (
	// MalformedResponse means the text was not valid JSON even after repair.
	MalformedResponse Kind = iota + 1
	// InvalidStructure means the JSON lacked the required workout shape.
	InvalidStructure
)

func (k Kind) String() string {
	switch k {
	case MalformedResponse:
		return "malformed response"
	case InvalidStructure:
		return "invalid structure"
	}
	return "unknown"
}

// Sentinels matched by errors.Is against a *ParseError of the same kind.
var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidStructure  = errors.New("invalid structure")
)

// ParseError carries the raw and cleaned text for diagnostics.
type ParseError struct {
	Kind    Kind
	Raw     string
	Cleaned string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("workoutparse: %s: %v", e.Kind, e.Err)
	}
	return "workoutparse: " + e.Kind.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrMalformedResponse:
		return e.Kind == MalformedResponse
	case ErrInvalidStructure:
		return e.Kind == InvalidStructure
	}
	return false
}
