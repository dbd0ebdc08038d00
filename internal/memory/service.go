package memory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/logancoach/logan/internal/bg"
	"github.com/logancoach/logan/internal/intent"
	"github.com/logancoach/logan/internal/prompts"
)

// DefaultTimeout bounds a recall. Past it the caller proceeds without memories.
const DefaultTimeout = 2 * time.Second

// Service wraps a Store with the chat flow's policies: writes never block
// the caller and reads give up after the timeout.
type Service struct {
	store   Store
	tasks   *bg.Runner
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewService creates a Service. A nil store disables memory: Remember is a
// no-op and Recall returns nothing.
func NewService(store Store, tasks *bg.Runner, log *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{store: store, tasks: tasks, log: log, timeout: timeout, now: time.Now}
}

// Enabled reports whether a store is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.store != nil
}

// Facts lists the sentences remembered for one chat turn: one per known
// intent field plus the raw message.
func Facts(in intent.Intent, message string) []Fact {
	var facts []Fact
	add := func(kind, format, v string) {
		if v != "" {
			facts = append(facts, Fact{Text: fmt.Sprintf(format, v), Kind: kind})
		}
	}
	add(KindPreference, "User's fitness level is %s", in.FitnessLevel)
	add(KindPreference, "User's fitness goal is %s", in.Goals)
	add(KindPreference, "User has %s minutes available for workouts", in.TimeAvailable)
	add(KindPreference, "User has access to %s", in.Equipment)
	add(KindPreference, "User wants to focus on %s", in.FocusAreas)
	add(KindPreference, "User wants to workout %s days per week", in.WorkoutFrequency)
	add(KindConversation, `User said: "%s"`, message)
	return facts
}

// Remember stores the facts for a chat turn in the background. Failures are
// logged and dropped.
func (s *Service) Remember(userID string, in intent.Intent, message string) {
	if !s.Enabled() || userID == "" {
		return
	}
	facts := Facts(in, message)
	now := s.now()
	s.tasks.Go("remember", func(ctx context.Context) error {
		// A failed write must not cancel its siblings.
		var g errgroup.Group
		for _, f := range facts {
			f.CreatedAt = now
			g.Go(func() error {
				return s.store.Add(ctx, userID, f)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("storing memories: %w", err)
		}
		s.log.Debug("stored memories", "user_id", userID, "count", len(facts))
		return nil
	})
}

// Recall searches the user's facts. It returns nil when memory is disabled,
// the search fails, or it does not answer within the timeout.
func (s *Service) Recall(ctx context.Context, userID, query string) []Record {
	if !s.Enabled() || userID == "" {
		return nil
	}
	if query == "" {
		query = DefaultQuery
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		recs []Record
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		recs, err := s.store.Search(ctx, userID, query)
		ch <- result{recs, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			s.log.Warn("memory search failed", "user_id", userID, "error", r.err)
			return nil
		}
		return r.recs
	case <-ctx.Done():
		s.log.Warn("memory search timed out", "user_id", userID, "timeout", s.timeout)
		return nil
	}
}

// Profile rebuilds what is known about the user from remembered facts.
func (s *Service) Profile(ctx context.Context, userID string) prompts.Remembered {
	return ParseProfile(s.Recall(ctx, userID, ""))
}

var (
	levelFact     = regexp.MustCompile(`fitness level is (\w+)`)
	goalFact      = regexp.MustCompile(`fitness goal is ([^.]+)`)
	timeFact      = regexp.MustCompile(`(\d+) minutes available`)
	equipmentFact = regexp.MustCompile(`access to ([^.]+)`)
	focusFact     = regexp.MustCompile(`focus on ([^.]+)`)
	frequencyFact = regexp.MustCompile(`(\d+) days per week`)
)

// ParseProfile reads profile fields out of fact sentences. Later records
// overwrite earlier ones.
func ParseProfile(recs []Record) prompts.Remembered {
	var p prompts.Remembered
	match := func(re *regexp.Regexp, text string, dst *string) {
		if m := re.FindStringSubmatch(text); m != nil {
			*dst = strings.TrimSpace(m[1])
		}
	}
	for _, r := range recs {
		text := r.Content()
		if strings.HasPrefix(text, "User said:") {
			continue
		}
		match(levelFact, text, &p.FitnessLevel)
		match(goalFact, text, &p.Goals)
		match(timeFact, text, &p.TimeAvailable)
		match(equipmentFact, text, &p.Equipment)
		match(focusFact, text, &p.FocusAreas)
		if strings.Contains(text, "workout") {
			match(frequencyFact, text, &p.WorkoutFrequency)
		}
	}
	return p
}
