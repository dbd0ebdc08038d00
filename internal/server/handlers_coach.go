package server

import (
	"net/http"

	"github.com/logancoach/logan/internal/coach"
	"github.com/logancoach/logan/internal/intent"
	"github.com/logancoach/logan/internal/models"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req coach.ChatRequest
	if !decode(w, r, &req) {
		return
	}
	reply, err := s.coach.Chat(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.log.Error("chat with logan failed", "error", err)
		writeError(w, http.StatusInternalServerError, coach.ErrorMessage(err, coach.FlowChat))
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleComposeReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string        `json:"message"`
		Context intent.Intent `json:"conversationContext"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, coach.Reply(req.Context, req.Message))
}

func (s *Server) handleGenerateWorkout(w http.ResponseWriter, r *http.Request) {
	var req coach.CustomRequest
	if !decode(w, r, &req) {
		return
	}
	workout, err := s.coach.GenerateCustom(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.log.Error("generate workout failed", "error", err)
		writeError(w, http.StatusInternalServerError, coach.ErrorMessage(err, coach.FlowWorkout))
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleGenerateSimpleWorkout(w http.ResponseWriter, r *http.Request) {
	var req coach.SimpleRequest
	if !decode(w, r, &req) {
		return
	}
	workout, err := s.coach.GenerateSimple(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.log.Error("generate simple workout failed", "error", err)
		writeError(w, http.StatusInternalServerError, coach.ErrorMessage(err, coach.FlowWorkout))
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleGenerateWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	var req coach.PlanRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := s.coach.GeneratePlan(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.log.Error("generate workout plan failed", "error", err)
		writeError(w, http.StatusInternalServerError, coach.ErrorMessage(err, coach.FlowPlan))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleSchedulePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan  *models.WeeklyPlan `json:"plan"`
		Weeks int                `json:"weeks"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Plan == nil || len(req.Plan.WeeklyPlan) == 0 {
		writeError(w, http.StatusBadRequest, "Missing required field: plan.weeklyPlan")
		return
	}

	workouts, err := s.coach.SchedulePlan(r.Context(), userIDFromContext(r), req.Plan, req.Weeks)
	if err != nil {
		s.fail(w, err, "Failed to save workout plan")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"count":    len(workouts),
		"workouts": workouts,
	})
}
