package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/logancoach/logan/internal/coach"
	"github.com/logancoach/logan/internal/models"
	"github.com/logancoach/logan/internal/session"
	"github.com/logancoach/logan/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// fail maps domain errors to status codes. Anything unrecognised is logged
// and answered with fallback.
func (s *Server) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Workout not found")
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusNotFound, "No active session for this workout")
	case errors.Is(err, models.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Workout cannot move back to an earlier status")
	case errors.Is(err, session.ErrSetCompleted):
		writeError(w, http.StatusConflict, "Set is already completed")
	case errors.Is(err, session.ErrOutOfRange), errors.Is(err, session.ErrUnknownField),
		errors.Is(err, models.ErrInvalidExercise), errors.Is(err, coach.ErrPlanWeeks):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.store.ListWorkouts(r.Context(), userIDFromContext(r))
	if err != nil {
		s.fail(w, err, "Failed to fetch workouts")
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	workout, err := s.store.GetWorkout(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "Failed to fetch workout")
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var body models.Workout
	if !decode(w, r, &body) {
		return
	}
	if body.Name == "" || body.Date == "" || body.Exercises == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: name, date, exercises")
		return
	}
	if _, err := time.Parse(models.DateLayout, body.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	if body.Status != "" && !body.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	if err := models.ValidateExercises(body.Exercises); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body.ID = ""
	body.UserID = userIDFromContext(r)
	if !s.checkChat(w, r, body.UserID, body.ChatID, "Failed to create workout") {
		return
	}
	if err := s.store.CreateWorkout(r.Context(), &body); err != nil {
		s.fail(w, err, "Failed to create workout")
		return
	}

	if body.ChatID != "" {
		userID, chatID, workoutID := body.UserID, body.ChatID, body.ID
		s.tasks.Go("link chat workout", func(ctx context.Context) error {
			return s.store.LinkWorkout(ctx, userID, chatID, workoutID)
		})
	}
	writeJSON(w, http.StatusCreated, body)
}

// checkChat reports whether chatID is empty or names one of userID's chats,
// answering the request otherwise.
func (s *Server) checkChat(w http.ResponseWriter, r *http.Request, userID, chatID, fallback string) bool {
	if chatID == "" {
		return true
	}
	_, err := s.store.GetChat(r.Context(), userID, chatID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusBadRequest, "Unknown chat_id")
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
	return false
}

// handleUpdateWorkout merges the body over the stored workout. The ID and
// owner never change and the status only moves forward.
func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	existing, err := s.store.GetWorkout(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "Failed to update workout")
		return
	}

	updated := existing.Clone()
	if !decode(w, r, &updated) {
		return
	}
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	if _, err := time.Parse(models.DateLayout, updated.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}
	if err := models.ValidateExercises(updated.Exercises); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if updated.ChatID != existing.ChatID && !s.checkChat(w, r, uid, updated.ChatID, "Failed to update workout") {
		return
	}
	if updated.Status != existing.Status {
		next := updated.Status
		updated.Status = existing.Status
		if !next.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		if err := updated.Transition(next, s.now()); err != nil {
			s.fail(w, err, "Failed to update workout")
			return
		}
	}

	if err := s.store.UpdateWorkout(r.Context(), &updated); err != nil {
		s.fail(w, err, "Failed to update workout")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id := chi.URLParam(r, "id")
	existing, err := s.store.GetWorkout(r.Context(), uid, id)
	if err != nil {
		s.fail(w, err, "Failed to delete workout")
		return
	}
	if err := s.store.DeleteWorkout(r.Context(), uid, id); err != nil {
		s.fail(w, err, "Failed to delete workout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Workout " + existing.Name + " deleted successfully"})
}

func (s *Server) handleWorkoutStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.WorkoutStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	workout, err := s.store.GetWorkout(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "Failed to update workout")
		return
	}
	if err := workout.Transition(body.Status, s.now()); err != nil {
		s.fail(w, err, "Failed to update workout")
		return
	}
	if err := s.store.UpdateWorkout(r.Context(), workout); err != nil {
		s.fail(w, err, "Failed to update workout")
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.WorkoutStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.fail(w, err, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(r.Context(), userIDFromContext(r))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.fail(w, err, "Failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleResetProfile(w http.ResponseWriter, r *http.Request) {
	err := s.store.ResetProfile(r.Context(), userIDFromContext(r))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.fail(w, err, "Failed to reset profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile reset successfully"})
}

func (s *Server) handleActiveChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.store.ActiveChat(r.Context(), userIDFromContext(r))
	if err != nil {
		s.fail(w, err, "Failed to load chat")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	chatID := chi.URLParam(r, "id")
	if _, err := s.store.GetChat(r.Context(), uid, chatID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		s.fail(w, err, "Failed to load chat")
		return
	}
	msgs, err := s.store.ListMessages(r.Context(), uid, chatID)
	if err != nil {
		s.fail(w, err, "Failed to load chat")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
