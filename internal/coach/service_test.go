package coach

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/logancoach/logan/internal/bg"
	"github.com/logancoach/logan/internal/intent"
	"github.com/logancoach/logan/internal/llm"
	"github.com/logancoach/logan/internal/memory"
	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/storage"
	"github.com/logancoach/logan/internal/workoutparse"
)

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []llm.ChatRequest
}

func (f *fakeLLM) Complete(_ context.Context, req llm.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func (f *fakeLLM) last() llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func newTestService(c Completer) (*Service, *storage.MemoryStore, *bg.Runner) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	tasks := bg.NewRunner(log)
	s := NewService(c, store, nil, workoutparse.New(log), tasks, log)
	// Wednesday
	s.now = func() time.Time { return time.Date(2025, 6, 4, 9, 30, 0, 0, time.UTC) }
	return s, store, tasks
}

func drain(t *testing.T, tasks *bg.Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tasks.Wait(ctx); err != nil {
		t.Fatalf("background tasks did not finish: %v", err)
	}
}

const workoutJSON = `Here you go!
{"name":"Morning Burn","exercises":[{"name":"Squat","sets":3,"reps":"12 reps","weight":0,"notes":"Knees out"},{}],"notes":"Have fun"}`

// TestChat verifies the system prompt carries the updated intent, the
// sampling parameters, and that side-channel writes land for a signed-in user.
func TestChat(t *testing.T) {
	fake := &fakeLLM{reply: "Love it! How much time do you have?"}
	s, store, tasks := newTestService(fake)

	req := ChatRequest{
		Messages: []llm.Message{
			llm.Assistant("Hi, I'm Logan!"),
			llm.User("I'm a beginner and want to lose weight"),
		},
	}
	got, err := s.Chat(context.Background(), "user-1", req)
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	drain(t, tasks)

	if got.Message != fake.reply {
		t.Errorf("Message = %q, want %q", got.Message, fake.reply)
	}
	if !got.ReadyForWorkout {
		t.Errorf("ReadyForWorkout = false, want true")
	}

	sent := fake.last()
	if sent.Temperature != 0.8 || sent.MaxTokens != 200 {
		t.Errorf("sampling = %v/%d, want 0.8/200", sent.Temperature, sent.MaxTokens)
	}
	if len(sent.Messages) != 3 || sent.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system prompt plus two turns", sent.Messages)
	}
	if !strings.Contains(sent.Messages[0].Content, "- Fitness Level: beginner") {
		t.Errorf("system prompt does not carry the extracted level")
	}

	p, err := store.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if p.FitnessLevel != "beginner" || !cmp.Equal(p.PrimaryGoals, []string{"weight_loss"}) {
		t.Errorf("profile = %+v, want beginner / weight_loss", p)
	}
	if p.LastChatAt == nil {
		t.Errorf("LastChatAt not stamped")
	}

	chat, err := store.ActiveChat(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ActiveChat() error: %v", err)
	}
	msgs, err := store.ListMessages(context.Background(), "user-1", chat.ID)
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Sender != models.SenderUser || msgs[1].Sender != models.SenderLogan {
		t.Errorf("messages = %+v, want user then logan", msgs)
	}
}

// memoryStore is a memory.Store whose Search returns records, or blocks
// until release is closed when release is set.
type memoryStore struct {
	records []memory.Record
	release chan struct{}
}

func (m *memoryStore) Add(context.Context, string, memory.Fact) error { return nil }

func (m *memoryStore) Search(context.Context, string, string) ([]memory.Record, error) {
	if m.release != nil {
		<-m.release
	}
	return m.records, nil
}

func newMemoryService(t *testing.T, c Completer, ms memory.Store, timeout time.Duration) (*Service, *bg.Runner) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tasks := bg.NewRunner(log)
	mem := memory.NewService(ms, tasks, log, timeout)
	s := NewService(c, storage.NewMemoryStore(), mem, workoutparse.New(log), tasks, log)
	return s, tasks
}

const rememberedHeading = "What I remember about this user"

// TestChatRecallsMemories verifies remembered facts reach the system prompt.
func TestChatRecallsMemories(t *testing.T) {
	fake := &fakeLLM{reply: "Welcome back!"}
	ms := &memoryStore{records: []memory.Record{
		{Memory: "User's fitness level is advanced"},
		{Memory: "User has access to full gym"},
	}}
	s, tasks := newMemoryService(t, fake, ms, time.Second)

	if _, err := s.Chat(context.Background(), "user-1", ChatRequest{Messages: []llm.Message{llm.User("hi again")}}); err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	drain(t, tasks)

	system := fake.last().Messages[0].Content
	for _, want := range []string{rememberedHeading, "- Previous fitness level: advanced", "- Equipment access: full gym"} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

// TestChatMemoryTimeout verifies a hung memory search is abandoned after the
// timeout and the reply is still produced without remembered context.
func TestChatMemoryTimeout(t *testing.T) {
	fake := &fakeLLM{reply: "Let's get moving!"}
	ms := &memoryStore{
		records: []memory.Record{{Memory: "User's fitness level is advanced"}},
		release: make(chan struct{}),
	}
	t.Cleanup(func() { close(ms.release) })
	s, tasks := newMemoryService(t, fake, ms, 50*time.Millisecond)

	begin := time.Now()
	got, err := s.Chat(context.Background(), "user-1", ChatRequest{Messages: []llm.Message{llm.User("hi")}})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("Chat took %v, want about the memory timeout", elapsed)
	}
	drain(t, tasks)

	if got.Message != fake.reply {
		t.Errorf("Message = %q, want %q", got.Message, fake.reply)
	}
	if system := fake.last().Messages[0].Content; strings.Contains(system, rememberedHeading) {
		t.Errorf("system prompt has a remembered section after a timed-out search")
	}
}

// TestChatSavesProfileOnUpstreamError verifies extracted fields are kept
// even when the completion fails.
func TestChatSavesProfileOnUpstreamError(t *testing.T) {
	fake := &fakeLLM{err: &llm.UpstreamError{StatusCode: 503}}
	s, store, tasks := newTestService(fake)

	_, err := s.Chat(context.Background(), "user-1", ChatRequest{Messages: []llm.Message{llm.User("I'm a beginner")}})
	if err == nil {
		t.Fatal("Chat() error = nil, want upstream error")
	}
	drain(t, tasks)

	p, err := store.GetProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if p.FitnessLevel != "beginner" {
		t.Errorf("FitnessLevel = %q, want beginner", p.FitnessLevel)
	}
}

// TestChatAnonymous verifies nothing is persisted without a user.
func TestChatAnonymous(t *testing.T) {
	fake := &fakeLLM{reply: "Hey there!"}
	s, store, tasks := newTestService(fake)

	if _, err := s.Chat(context.Background(), "", ChatRequest{Messages: []llm.Message{llm.User("hi")}}); err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	drain(t, tasks)

	if _, err := store.GetProfile(context.Background(), ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}
}

// TestChatNoChangeSkipsProfile verifies an unchanged intent does not write the profile.
func TestChatNoChangeSkipsProfile(t *testing.T) {
	fake := &fakeLLM{reply: "Nice."}
	s, store, tasks := newTestService(fake)

	prev := intent.Update(intent.Intent{}, "beginner")
	if _, err := s.Chat(context.Background(), "user-1", ChatRequest{
		Messages: []llm.Message{llm.User("hello there")},
		Context:  prev,
	}); err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	drain(t, tasks)

	if _, err := store.GetProfile(context.Background(), "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}
}

// TestChatUpstreamError verifies provider failures surface to the caller.
func TestChatUpstreamError(t *testing.T) {
	fake := &fakeLLM{err: &llm.UpstreamError{StatusCode: 429}}
	s, _, _ := newTestService(fake)

	_, err := s.Chat(context.Background(), "", ChatRequest{Messages: []llm.Message{llm.User("hi")}})
	if err == nil {
		t.Fatal("Chat() error = nil, want upstream error")
	}
	if got := ErrorMessage(err, FlowChat); got != llm.MsgRateLimited {
		t.Errorf("ErrorMessage() = %q, want %q", got, llm.MsgRateLimited)
	}
}

// TestGenerateSimple verifies defaults, sampling parameters and parsing.
func TestGenerateSimple(t *testing.T) {
	fake := &fakeLLM{reply: workoutJSON}
	s, _, tasks := newTestService(fake)

	w, err := s.GenerateSimple(context.Background(), "", SimpleRequest{Goals: "weight loss"})
	if err != nil {
		t.Fatalf("GenerateSimple() error: %v", err)
	}
	drain(t, tasks)

	sent := fake.last()
	if sent.Temperature != 0.7 || sent.MaxTokens != 1000 {
		t.Errorf("sampling = %v/%d, want 0.7/1000", sent.Temperature, sent.MaxTokens)
	}
	prompt := sent.Messages[1].Content
	for _, want := range []string{"beginner fitness level", "Goals: weight loss", "Time available: 30 minutes", "Available equipment: bodyweight only"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	want := []models.Exercise{
		{Name: "Squat", Sets: 3, Reps: 12, Weight: 0, Notes: "Knees out"},
		{Name: "Unknown Exercise", Sets: 3, Reps: 10, Weight: 0},
	}
	if diff := cmp.Diff(want, w.Exercises); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}
	if w.Duration != 30 || w.Status != models.StatusProposed {
		t.Errorf("duration/status = %d/%s, want 30/proposed", w.Duration, w.Status)
	}
}

// TestGenerateCustomInvalid verifies a structurally invalid answer maps to
// the workout structure message.
func TestGenerateCustomInvalid(t *testing.T) {
	fake := &fakeLLM{reply: `{"exercises":[]}`}
	s, _, _ := newTestService(fake)

	_, err := s.GenerateCustom(context.Background(), "", CustomRequest{FitnessLevel: "advanced", WorkoutType: "strength", Duration: 40})
	if !errors.Is(err, workoutparse.ErrInvalidStructure) {
		t.Fatalf("GenerateCustom() error = %v, want ErrInvalidStructure", err)
	}
	if got, want := ErrorMessage(err, FlowWorkout), "Invalid workout structure from AI. Please try again."; got != want {
		t.Errorf("ErrorMessage() = %q, want %q", got, want)
	}
	if got, want := ErrorMessage(err, FlowPlan), "Invalid plan structure from AI. Please try again."; got != want {
		t.Errorf("ErrorMessage(plan) = %q, want %q", got, want)
	}
}

// TestGenerateCustomDuration verifies the requested duration is copied onto the workout.
func TestGenerateCustomDuration(t *testing.T) {
	fake := &fakeLLM{reply: workoutJSON}
	s, _, _ := newTestService(fake)

	w, err := s.GenerateCustom(context.Background(), "", CustomRequest{FitnessLevel: "advanced", WorkoutType: "strength", Duration: 40})
	if err != nil {
		t.Fatalf("GenerateCustom() error: %v", err)
	}
	if w.Duration != 40 || w.WorkoutType != "strength" {
		t.Errorf("duration/type = %d/%s, want 40/strength", w.Duration, w.WorkoutType)
	}
}

const planJSON = `{"name":"Two Day Split","weeklyPlan":[
{"day":"Monday","focus":"Upper Body","workout":{"name":"Push Day","exercises":[{"name":"Push-ups","sets":3,"reps":10,"weight":0}]}},
{"day":"Wednesday","focus":"Lower Body","workout":{"name":"Leg Day","exercises":[{"name":"Squat","sets":"4","reps":8,"weight":"95"}]}}
],"notes":"Rest well"}`

// TestGeneratePlan verifies metadata and the chat summary written for the user.
func TestGeneratePlan(t *testing.T) {
	fake := &fakeLLM{reply: planJSON}
	s, store, tasks := newTestService(fake)

	plan, err := s.GeneratePlan(context.Background(), "user-1", PlanRequest{
		FitnessLevel: "intermediate", Goals: "strength training", WorkoutFrequency: "2",
		TimeAvailable: "50", Equipment: "full gym", FocusAreas: "full body",
	})
	if err != nil {
		t.Fatalf("GeneratePlan() error: %v", err)
	}
	drain(t, tasks)

	if fake.last().MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d, want 2000", fake.last().MaxTokens)
	}
	if plan.FitnessLevel != "intermediate" || plan.WorkoutFrequency != "2" || len(plan.WeeklyPlan) != 2 {
		t.Errorf("plan = %+v, want intermediate, 2 days", plan)
	}

	chat, _ := store.ActiveChat(context.Background(), "user-1")
	msgs, _ := store.ListMessages(context.Background(), "user-1", chat.ID)
	if len(msgs) != 1 || msgs[0].MessageType != models.MessageWorkoutGenerated {
		t.Fatalf("messages = %+v, want one workout_generated message", msgs)
	}
	if !strings.Contains(msgs[0].Content, "• Monday: Upper Body - Push Day") {
		t.Errorf("summary = %q, want a line per day", msgs[0].Content)
	}
}

// TestPlanDates verifies weekdays land strictly after today and repeat weekly.
func TestPlanDates(t *testing.T) {
	plan := &models.WeeklyPlan{WeeklyPlan: []models.PlanDay{{Day: "Wednesday"}, {Day: "friday"}, {Day: "Rest-ish"}}}
	wed := time.Date(2025, 6, 4, 18, 0, 0, 0, time.UTC)

	got := PlanDates(plan, wed, 2)
	format := func(ts []time.Time) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Format(models.DateLayout))
		}
		return out
	}
	want := [][]string{
		{"2025-06-11", "2025-06-06", "2025-06-07"},
		{"2025-06-18", "2025-06-13", "2025-06-14"},
	}
	for i := range want {
		if diff := cmp.Diff(want[i], format(got[i])); diff != "" {
			t.Errorf("week %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

// TestSchedulePlan verifies every day is stored as a proposed workout for each week.
func TestSchedulePlan(t *testing.T) {
	s, store, _ := newTestService(&fakeLLM{})
	plan := &models.WeeklyPlan{
		Name:          "Split",
		TimeAvailable: "50",
		FitnessLevel:  "beginner",
		WeeklyPlan: []models.PlanDay{
			{Day: "Monday", Focus: "Upper", Workout: models.PlanWorkout{Name: "Push", Exercises: []models.Exercise{{Name: "Push-ups", Sets: 3, Reps: 10}}}},
			{Day: "Thursday", Focus: "Lower", Workout: models.PlanWorkout{Exercises: []models.Exercise{{Name: "Squat", Sets: 3, Reps: 10}}}},
		},
	}

	got, err := s.SchedulePlan(context.Background(), "user-1", plan, 0)
	if err != nil {
		t.Fatalf("SchedulePlan() error: %v", err)
	}
	if len(got) != 2*DefaultPlanWeeks {
		t.Fatalf("scheduled %d workouts, want %d", len(got), 2*DefaultPlanWeeks)
	}
	if got[0].Date != "2025-06-09" || got[1].Date != "2025-06-05" {
		t.Errorf("first week dates = %s, %s, want 2025-06-09, 2025-06-05", got[0].Date, got[1].Date)
	}
	if got[1].Name != "Split - Thursday" {
		t.Errorf("unnamed day = %q, want %q", got[1].Name, "Split - Thursday")
	}
	for _, w := range got {
		if w.Status != models.StatusProposed || w.Duration != 50 || w.ID == "" {
			t.Errorf("workout %+v, want proposed, 50 minutes, with an ID", w)
		}
	}

	stored, err := store.ListWorkouts(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListWorkouts() error: %v", err)
	}
	if len(stored) != len(got) {
		t.Errorf("stored %d workouts, want %d", len(stored), len(got))
	}
}

type failingBatchStore struct {
	*storage.MemoryStore
}

func (failingBatchStore) CreateWorkouts(context.Context, []models.Workout) error {
	return errors.New("connection reset")
}

// TestSchedulePlanBounds verifies the schedule length is bounded and that a
// failed batch write stores nothing.
func TestSchedulePlanBounds(t *testing.T) {
	s, store, _ := newTestService(&fakeLLM{})
	plan := &models.WeeklyPlan{
		Name: "Split",
		WeeklyPlan: []models.PlanDay{
			{Day: "Monday", Workout: models.PlanWorkout{Name: "Push", Exercises: []models.Exercise{{Name: "Push-ups", Sets: 3, Reps: 10}}}},
		},
	}

	for _, weeks := range []int{-1, MaxPlanWeeks + 1} {
		if _, err := s.SchedulePlan(context.Background(), "user-1", plan, weeks); !errors.Is(err, ErrPlanWeeks) {
			t.Errorf("weeks %d: err = %v, want ErrPlanWeeks", weeks, err)
		}
	}
	if got, err := s.SchedulePlan(context.Background(), "user-1", plan, MaxPlanWeeks); err != nil || len(got) != MaxPlanWeeks {
		t.Errorf("weeks %d: got %d workouts, err %v", MaxPlanWeeks, len(got), err)
	}

	bad := *plan
	bad.WeeklyPlan = []models.PlanDay{{Day: "Monday", Workout: models.PlanWorkout{Exercises: []models.Exercise{{Name: "Squat", Sets: 0, Reps: 10}}}}}
	if _, err := s.SchedulePlan(context.Background(), "user-1", &bad, 2); !errors.Is(err, models.ErrInvalidExercise) {
		t.Errorf("invalid exercise err = %v, want ErrInvalidExercise", err)
	}

	s.store = failingBatchStore{store}
	if _, err := s.SchedulePlan(context.Background(), "user-2", plan, 2); err == nil {
		t.Fatal("SchedulePlan() error = nil, want store error")
	}
	if list, _ := store.ListWorkouts(context.Background(), "user-2"); len(list) != 0 {
		t.Errorf("stored %d workouts after a failed write, want 0", len(list))
	}
}
