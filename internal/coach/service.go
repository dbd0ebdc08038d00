package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logancoach/logan/internal/bg"
	"github.com/logancoach/logan/internal/intent"
	"github.com/logancoach/logan/internal/llm"
	"github.com/logancoach/logan/internal/memory"
	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/prompts"
	"github.com/logancoach/logan/internal/storage"
	"github.com/logancoach/logan/internal/workoutparse"
)

// Completer produces a single chat completion.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

// Store is the persistence the coaching flows touch.
type Store interface {
	storage.WorkoutRepository
	storage.ProfileRepository
	storage.ChatRepository
}

// Service runs the chat and generation flows. Profile, memory and chat
// history writes are side channels: they run on the background runner and
// never fail the request.
type Service struct {
	llm    Completer
	store  Store
	memory *memory.Service
	parser *workoutparse.Parser
	tasks  *bg.Runner
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. mem may be nil when memory is disabled.
func NewService(c Completer, store Store, mem *memory.Service, parser *workoutparse.Parser, tasks *bg.Runner, log *slog.Logger) *Service {
	return &Service{
		llm:    c,
		store:  store,
		memory: mem,
		parser: parser,
		tasks:  tasks,
		log:    log,
		now:    time.Now,
	}
}

// ChatRequest is one turn of the coaching conversation. Messages holds the
// prior turns including the latest user message.
type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
	Context  intent.Intent `json:"conversationContext"`
}

// ChatReply is Logan's answer plus the intent after the latest message.
type ChatReply struct {
	Message         string        `json:"message"`
	ReadyForWorkout bool          `json:"readyForWorkout"`
	Context         intent.Intent `json:"conversationContext"`
}

// Chat updates the intent from the latest user message and asks the LLM for
// Logan's reply. userID may be empty for anonymous chats, in which case
// nothing is remembered or persisted.
func (s *Service) Chat(ctx context.Context, userID string, req ChatRequest) (*ChatReply, error) {
	latest := latestUserMessage(req.Messages)
	prev := req.Context
	next := intent.Update(prev, latest)

	if userID != "" {
		if changed := intent.Changed(prev, next); len(changed) > 0 {
			s.saveProfile(userID, next)
		}
	}

	remembered := s.memory.Profile(ctx, userID)
	system := prompts.Chat(prompts.Context{
		FitnessLevel:  next.FitnessLevel,
		Goals:         next.Goals,
		TimeAvailable: next.TimeAvailable,
		Equipment:     next.Equipment,
	}, remembered)

	msgs := make([]llm.Message, 0, len(req.Messages)+1)
	msgs = append(msgs, llm.System(system))
	msgs = append(msgs, req.Messages...)

	text, err := s.llm.Complete(ctx, llm.ChatRequest{
		Messages:    msgs,
		Temperature: 0.8,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if userID != "" {
		s.memory.Remember(userID, next, latest)
		s.recordTurn(userID, latest, text)
	}

	return &ChatReply{Message: text, ReadyForWorkout: next.HasEnoughInfo, Context: next}, nil
}

func latestUserMessage(msgs []llm.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}

// Reply runs the local decision table without calling the LLM.
func Reply(prev intent.Intent, message string) ChatReply {
	next := intent.Update(prev, message)
	return ChatReply{
		Message:         Compose(next, message),
		ReadyForWorkout: next.HasEnoughInfo || Ready(message),
		Context:         next,
	}
}

func (s *Service) saveProfile(userID string, in intent.Intent) {
	now := s.now()
	s.tasks.Go("profile upsert", func(ctx context.Context) error {
		p, err := s.store.GetProfile(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			p = &models.Profile{UserID: userID}
		} else if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		intent.ApplyToProfile(p, in)
		p.LastChatAt = &now
		return s.store.UpsertProfile(ctx, p)
	})
}

func (s *Service) recordTurn(userID, userText, loganText string) {
	s.tasks.Go("chat history", func(ctx context.Context) error {
		chat, err := s.store.ActiveChat(ctx, userID)
		if err != nil {
			return fmt.Errorf("active chat: %w", err)
		}
		if userText != "" {
			if err := s.store.AddMessage(ctx, &models.Message{
				ChatID: chat.ID, UserID: userID, Sender: models.SenderUser,
				Content: userText, MessageType: models.MessageText,
			}); err != nil {
				return err
			}
		}
		return s.store.AddMessage(ctx, &models.Message{
			ChatID: chat.ID, UserID: userID, Sender: models.SenderLogan,
			Content: loganText, MessageType: models.MessageText,
		})
	})
}

func (s *Service) recordGenerated(userID, text string) {
	if userID == "" {
		return
	}
	s.tasks.Go("chat history", func(ctx context.Context) error {
		chat, err := s.store.ActiveChat(ctx, userID)
		if err != nil {
			return fmt.Errorf("active chat: %w", err)
		}
		return s.store.AddMessage(ctx, &models.Message{
			ChatID: chat.ID, UserID: userID, Sender: models.SenderLogan,
			Content: text, MessageType: models.MessageWorkoutGenerated,
		})
	})
}

// SimpleRequest asks for one workout for today from the chat intent.
type SimpleRequest struct {
	FitnessLevel  string `json:"fitnessLevel"`
	Goals         string `json:"goals"`
	TimeAvailable string `json:"timeAvailable"`
	Equipment     string `json:"equipment"`
	Conversation  string `json:"conversation,omitempty"`
}

// GenerateSimple generates today's workout. Empty fields fall back to a
// 30 minute bodyweight general fitness session for a beginner.
func (s *Service) GenerateSimple(ctx context.Context, userID string, req SimpleRequest) (*models.Workout, error) {
	in := intent.Intent{
		FitnessLevel:  req.FitnessLevel,
		Goals:         req.Goals,
		TimeAvailable: req.TimeAvailable,
		Equipment:     req.Equipment,
	}.WithDefaults()

	prompt := prompts.Workout(prompts.WorkoutParams{
		FitnessLevel:  in.FitnessLevel,
		Goals:         in.Goals,
		TimeAvailable: in.TimeAvailable,
		Equipment:     in.Equipment,
		Conversation:  req.Conversation,
		ID:            uuid.NewString(),
		Date:          s.now().Format(models.DateLayout),
	})
	raw, err := s.llm.Complete(ctx, llm.ChatRequest{
		Messages:    []llm.Message{llm.System(prompts.WorkoutSystem), llm.User(prompt)},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("workout completion: %w", err)
	}

	w, err := s.parser.Parse(raw, workoutparse.Request{DurationMinutes: workoutparse.Minutes(in.TimeAvailable)})
	if err != nil {
		return nil, err
	}
	w.UserID = userID
	w.DifficultyLevel = in.FitnessLevel
	s.recordGenerated(userID, "Generated workout: "+w.Name)
	return w, nil
}

// CustomRequest asks for a typed workout with explicit parameters.
type CustomRequest struct {
	FitnessLevel string   `json:"fitnessLevel"`
	WorkoutType  string   `json:"workoutType"`
	FocusArea    string   `json:"focusArea"`
	Duration     int      `json:"duration"`
	Equipment    []string `json:"equipment"`
	Conversation string   `json:"conversation,omitempty"`
}

// GenerateCustom generates a workout of the requested type and duration.
func (s *Service) GenerateCustom(ctx context.Context, userID string, req CustomRequest) (*models.Workout, error) {
	if req.Duration <= 0 {
		req.Duration = workoutparse.Minutes("")
	}
	prompt := prompts.Custom(prompts.CustomParams{
		FitnessLevel: req.FitnessLevel,
		WorkoutType:  req.WorkoutType,
		FocusArea:    req.FocusArea,
		Duration:     req.Duration,
		Equipment:    req.Equipment,
		Conversation: req.Conversation,
	})
	raw, err := s.llm.Complete(ctx, llm.ChatRequest{
		Messages:    []llm.Message{llm.System(prompts.WorkoutSystem), llm.User(prompt)},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("workout completion: %w", err)
	}

	w, err := s.parser.Parse(raw, workoutparse.Request{DurationMinutes: req.Duration})
	if err != nil {
		return nil, err
	}
	w.UserID = userID
	w.DifficultyLevel = req.FitnessLevel
	w.WorkoutType = req.WorkoutType
	s.recordGenerated(userID, "Generated workout: "+w.Name)
	return w, nil
}

// PlanRequest asks for a weekly plan.
type PlanRequest struct {
	FitnessLevel     string `json:"fitnessLevel"`
	Goals            string `json:"goals"`
	WorkoutFrequency string `json:"workoutFrequency"`
	TimeAvailable    string `json:"timeAvailable"`
	Equipment        string `json:"equipment"`
	FocusAreas       string `json:"focusAreas"`
	Conversation     string `json:"conversation,omitempty"`
}

// GeneratePlan generates a weekly plan. The response carries the request
// parameters as metadata.
func (s *Service) GeneratePlan(ctx context.Context, userID string, req PlanRequest) (*models.WeeklyPlan, error) {
	prompt := prompts.Plan(prompts.PlanParams{
		FitnessLevel:     req.FitnessLevel,
		Goals:            req.Goals,
		WorkoutFrequency: req.WorkoutFrequency,
		TimeAvailable:    req.TimeAvailable,
		Equipment:        req.Equipment,
		FocusAreas:       req.FocusAreas,
		Conversation:     req.Conversation,
	})
	raw, err := s.llm.Complete(ctx, llm.ChatRequest{
		Messages:    []llm.Message{llm.System(prompts.PlanSystem), llm.User(prompt)},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("plan completion: %w", err)
	}

	plan, err := s.parser.ParsePlan(raw, workoutparse.PlanRequest{
		FitnessLevel:     req.FitnessLevel,
		Goals:            req.Goals,
		WorkoutFrequency: req.WorkoutFrequency,
		TimeAvailable:    req.TimeAvailable,
		Equipment:        req.Equipment,
		FocusAreas:       req.FocusAreas,
	})
	if err != nil {
		return nil, err
	}
	s.recordGenerated(userID, PlanSummary(plan))
	return plan, nil
}

// PlanSummary is the chat message describing a freshly generated plan.
func PlanSummary(p *models.WeeklyPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! I've created your personalized %s-day weekly workout plan: %q. Here's what I've designed for you:\n\n",
		p.WorkoutFrequency, p.Name)
	for _, d := range p.WeeklyPlan {
		fmt.Fprintf(&b, "• %s: %s - %s\n", d.Day, d.Focus, d.Workout.Name)
	}
	if p.Notes != "" {
		b.WriteString("\n" + p.Notes)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Flow names the request an error came from.
type Flow int

const (
	FlowChat Flow = iota
	FlowWorkout
	FlowPlan
)

var fallbacks = map[Flow]string{
	FlowChat:    "Failed to generate response. Please try again.",
	FlowWorkout: "Failed to generate workout. Please try again.",
	FlowPlan:    "Failed to generate workout plan. Please try again.",
}

// ErrorMessage turns a flow failure into the friendly retry text shown to the user.
func ErrorMessage(err error, flow Flow) string {
	switch {
	case errors.Is(err, workoutparse.ErrMalformedResponse):
		return "Invalid response format from AI. Please try again."
	case errors.Is(err, workoutparse.ErrInvalidStructure):
		if flow == FlowPlan {
			return "Invalid plan structure from AI. Please try again."
		}
		return "Invalid workout structure from AI. Please try again."
	}
	return llm.UserMessage(err, fallbacks[flow])
}
