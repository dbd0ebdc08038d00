package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/logancoach/logan/internal/coerce"
	"github.com/logancoach/logan/internal/llm"
	"github.com/logancoach/logan/internal/prompts"
)

// CompleteSetFunction is the realtime tool name the voice coach calls.
const CompleteSetFunction = "complete_set"

// ErrUnknownCommand is returned for function calls other than complete_set.
var ErrUnknownCommand = errors.New("unknown voice command")

// Command is an inbound instruction from the voice transport.
type Command interface {
	command()
}

// CompleteSet asks to complete a set of the current exercise. SetNumber is 1-based.
type CompleteSet struct {
	SetNumber int
}

func (CompleteSet) command() {}

// DecodeCommand turns a realtime function call into a Command.
func DecodeCommand(name, arguments string) (Command, error) {
	if name != CompleteSetFunction {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
	}
	n, ok := coerce.Int(args["setNumber"])
	if !ok {
		return nil, fmt.Errorf("%s: missing setNumber", name)
	}
	return CompleteSet{SetNumber: n}, nil
}

// Ack is the function_call_output payload returned to the voice model.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorAck is sent when a call cannot be decoded or applied.
var ErrorAck = Ack{Message: "Sorry, there was an error completing the set. Please try again."}

// Apply executes cmd against the current exercise.
func (r *Runner) Apply(cmd Command) Ack {
	switch c := cmd.(type) {
	case CompleteSet:
		return r.applyCompleteSet(c)
	default:
		return ErrorAck
	}
}

func (r *Runner) applyCompleteSet(c CompleteSet) Ack {
	if len(r.sets) == 0 {
		return ErrorAck
	}
	ex := r.current
	name := r.workout.Exercises[ex].Name
	total := len(r.sets[ex])
	idx := c.SetNumber - 1

	if idx < 0 || idx >= total {
		return Ack{Message: fmt.Sprintf("Invalid set number. %s has %d sets. Please use 1-%d.", name, total, total)}
	}
	changed, err := r.CompleteSet(ex, idx)
	if err != nil {
		return ErrorAck
	}
	if !changed {
		return Ack{Message: fmt.Sprintf("Set %d is already completed! Good job on that one.", c.SetNumber)}
	}
	return Ack{Success: true, Message: fmt.Sprintf("Great job! Set %d of %s completed successfully!", c.SetNumber, name)}
}

// FunctionCall is a completed function call item from the realtime transport.
type FunctionCall struct {
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments"`
}

// OutputItem is the conversation item carrying a function call result.
type OutputItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// Event is an outbound realtime client event.
type Event struct {
	Type    string             `json:"type"`
	Item    *OutputItem        `json:"item,omitempty"`
	Session *llm.SessionConfig `json:"session,omitempty"`
}

// HandleCall decodes and applies a function call, returning the ack and the
// events to send back: the call output followed by response.create.
func (r *Runner) HandleCall(call FunctionCall) (Ack, []Event) {
	ack := ErrorAck
	if cmd, err := DecodeCommand(call.Name, call.Arguments); err == nil {
		ack = r.Apply(cmd)
	}
	out, _ := json.Marshal(ack)
	return ack, []Event{
		{Type: "conversation.item.create", Item: &OutputItem{Type: "function_call_output", CallID: call.CallID, Output: string(out)}},
		{Type: "response.create"},
	}
}

// CompleteSetTool describes complete_set to the realtime model.
var CompleteSetTool = llm.Tool{
	Type:        "function",
	Name:        CompleteSetFunction,
	Description: "Mark a set as completed when the user finishes it",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"setNumber": map[string]any{
				"type":        "number",
				"description": "The set number to complete (1-based index)",
			},
		},
		"required": []string{"setNumber"},
	},
}

// VoiceConfig is the realtime session configuration for the current exercise.
func (r *Runner) VoiceConfig() llm.SessionConfig {
	return llm.SessionConfig{
		Instructions:            prompts.Voice(r.voiceContext()),
		Voice:                   llm.RealtimeVoice,
		TurnDetection:           &llm.TurnDetection{Type: "server_vad"},
		InputAudioTranscription: &llm.Transcription{Model: "whisper-1"},
		Tools:                   []llm.Tool{CompleteSetTool},
	}
}

// SessionUpdate is the session.update event for the current exercise.
func (r *Runner) SessionUpdate() Event {
	cfg := r.VoiceConfig()
	return Event{Type: "session.update", Session: &cfg}
}

func (r *Runner) voiceContext() prompts.VoiceContext {
	vc := prompts.VoiceContext{
		WorkoutName:    r.workout.Name,
		TotalExercises: len(r.workout.Exercises),
	}
	if len(r.sets) == 0 {
		return vc
	}
	ex := r.workout.Exercises[r.current]
	vc.ExerciseName = ex.Name
	vc.ExerciseNumber = r.current + 1
	vc.Sets = ex.Sets
	vc.Reps = ex.Reps
	vc.WeightLbs = ex.Weight
	vc.Notes = ex.Notes
	vc.CompletedSets = r.completedSets(r.current)
	vc.NextSet = r.nextOpenSet(r.current) + 1
	return vc
}
