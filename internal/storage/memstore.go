package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logancoach/logan/internal/models"
)

// MemoryStore is an in-process Store used for local development and tests.
// Values are copied in and out so callers never share state with it.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	workouts  map[string]models.Workout
	profiles  map[string]models.Profile
	chats     map[string]models.Chat
	messages  map[string][]models.Message
	exercises map[string]string // exercise ID -> workout ID
}

// Compile-time check: MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		workouts:  make(map[string]models.Workout),
		profiles:  make(map[string]models.Profile),
		chats:     make(map[string]models.Chat),
		messages:  make(map[string][]models.Message),
		exercises: make(map[string]string),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

func (s *MemoryStore) ListWorkouts(_ context.Context, userID string) ([]models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Workout{}
	for _, w := range s.workouts {
		if w.UserID == userID {
			out = append(out, w.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Workout) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(*a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetWorkout(_ context.Context, userID, id string) (*models.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return nil, ErrNotFound
	}
	c := w.Clone()
	return &c, nil
}

func (s *MemoryStore) CreateWorkout(_ context.Context, w *models.Workout) error {
	if _, err := parseDate(w.Date); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = models.StatusProposed
	}
	now := s.now()
	w.CreatedAt = &now
	w.UpdatedAt = &now
	s.putWorkout(w)
	return nil
}

func (s *MemoryStore) CreateWorkouts(_ context.Context, ws []models.Workout) error {
	for i := range ws {
		if _, err := parseDate(ws[i].Date); err != nil {
			return fmt.Errorf("workout %d of %d: %w", i+1, len(ws), err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := range ws {
		w := &ws[i]
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		if w.Status == "" {
			w.Status = models.StatusProposed
		}
		w.CreatedAt = &now
		w.UpdatedAt = &now
		s.putWorkout(w)
	}
	return nil
}

func (s *MemoryStore) putWorkout(w *models.Workout) {
	if w.Exercises == nil {
		w.Exercises = []models.Exercise{}
	}
	for i := range w.Exercises {
		if w.Exercises[i].ID == "" {
			w.Exercises[i].ID = uuid.NewString()
		}
		s.exercises[w.Exercises[i].ID] = w.ID
	}
	w.Completed = w.Status == models.StatusCompleted
	s.workouts[w.ID] = w.Clone()
}

func (s *MemoryStore) UpdateWorkout(_ context.Context, w *models.Workout) error {
	if _, err := parseDate(w.Date); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.workouts[w.ID]
	if !ok || old.UserID != w.UserID {
		return ErrNotFound
	}
	for _, e := range old.Exercises {
		delete(s.exercises, e.ID)
	}
	now := s.now()
	w.CreatedAt = old.CreatedAt
	w.UpdatedAt = &now
	s.putWorkout(w)
	return nil
}

func (s *MemoryStore) DeleteWorkout(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workouts[id]
	if !ok || w.UserID != userID {
		return ErrNotFound
	}
	for _, e := range w.Exercises {
		delete(s.exercises, e.ID)
	}
	delete(s.workouts, id)
	return nil
}

func (s *MemoryStore) UpdateExerciseProgress(_ context.Context, exerciseID string, p models.ExerciseProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wid, ok := s.exercises[exerciseID]
	if !ok {
		return ErrNotFound
	}
	w := s.workouts[wid]
	for i := range w.Exercises {
		if w.Exercises[i].ID == exerciseID {
			w.Exercises[i].Apply(p)
		}
	}
	s.workouts[wid] = w
	return nil
}

func (s *MemoryStore) WorkoutStats(_ context.Context, userID string) (*WorkoutStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &WorkoutStats{ByStatus: map[string]int64{}, WorkoutsByType: []WorkoutTypeStat{}}
	byType := map[string]*WorkoutTypeStat{}
	for _, w := range s.workouts {
		if w.UserID != userID {
			continue
		}
		stats.TotalWorkouts++
		stats.ByStatus[string(w.Status)]++
		if stats.EarliestDate == "" || w.Date < stats.EarliestDate {
			stats.EarliestDate = w.Date
		}
		if w.Date > stats.LatestDate {
			stats.LatestDate = w.Date
		}
		for _, e := range w.Exercises {
			if e.ActualSets != nil {
				stats.CompletedSets += int64(*e.ActualSets)
			}
		}
		typ := w.WorkoutType
		if typ == "" {
			typ = "general"
		}
		t, ok := byType[typ]
		if !ok {
			t = &WorkoutTypeStat{Type: typ}
			byType[typ] = t
		}
		t.Count++
		t.TotalDuration += int64(w.Duration)
	}
	for _, t := range byType {
		stats.WorkoutsByType = append(stats.WorkoutsByType, *t)
	}
	slices.SortFunc(stats.WorkoutsByType, func(a, b WorkoutTypeStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return stats, nil
}

func cloneProfile(p models.Profile) models.Profile {
	p.PrimaryGoals = slices.Clone(orEmpty(p.PrimaryGoals))
	p.AvailableEquipment = slices.Clone(orEmpty(p.AvailableEquipment))
	p.FocusAreas = slices.Clone(orEmpty(p.FocusAreas))
	return p
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneProfile(p)
	return &c, nil
}

func (s *MemoryStore) UpsertProfile(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if old, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now
	s.profiles[p.UserID] = cloneProfile(*p)
	return nil
}

func (s *MemoryStore) ResetProfile(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Reset()
	now := s.now()
	p.UpdatedAt = &now
	s.profiles[userID] = p
	return nil
}

func (s *MemoryStore) ActiveChat(_ context.Context, userID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Chat
	for _, c := range s.chats {
		if c.UserID != userID || c.Status != models.ChatActive {
			continue
		}
		if latest == nil || c.UpdatedAt.After(latest.UpdatedAt) {
			latest = &c
		}
	}
	if latest != nil {
		return latest, nil
	}

	now := s.now()
	c := models.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     chatTitle(now),
		Status:    models.ChatActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats[c.ID] = c
	return &c, nil
}

func (s *MemoryStore) GetChat(_ context.Context, userID, chatID string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) AddMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[m.ChatID]
	if !ok {
		return ErrNotFound
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MessageType == "" {
		m.MessageType = models.MessageText
	}
	m.CreatedAt = s.now()
	s.messages[m.ChatID] = append(s.messages[m.ChatID], *m)
	c.UpdatedAt = m.CreatedAt
	s.chats[m.ChatID] = c
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, userID, chatID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Message{}
	for _, m := range s.messages[chatID] {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) LinkWorkout(_ context.Context, userID, chatID, workoutID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	c.WorkoutGenerated = true
	c.WorkoutID = workoutID
	c.UpdatedAt = s.now()
	s.chats[chatID] = c
	return nil
}
