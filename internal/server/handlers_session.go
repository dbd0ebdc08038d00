package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/logancoach/logan/internal/llm"
	"github.com/logancoach/logan/internal/session"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Start(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "Failed to start workout")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Snapshot(userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "Failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// setRequest addresses one set by zero-based exercise and set index.
type setRequest struct {
	Exercise int           `json:"exercise"`
	Set      int           `json:"set"`
	Field    session.Field `json:"field"`
	Value    any           `json:"value"`
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if !decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(run *session.Runner) (any, error) {
		if err := run.UpdateSet(req.Exercise, req.Set, req.Field, req.Value); err != nil {
			return nil, err
		}
		return run.Snapshot(s.now()), nil
	})
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if !decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(run *session.Runner) (any, error) {
		changed, err := run.CompleteSet(req.Exercise, req.Set)
		if err != nil {
			return nil, err
		}
		return map[string]any{"changed": changed, "session": run.Snapshot(s.now())}, nil
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exercise int `json:"exercise"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.withSession(w, r, func(run *session.Runner) (any, error) {
		if err := run.Navigate(req.Exercise); err != nil {
			return nil, err
		}
		return run.Snapshot(s.now()), nil
	})
}

// withSession runs fn under the session lock and writes its result.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(run *session.Runner) (any, error)) {
	var out any
	err := s.sessions.With(userIDFromContext(r), chi.URLParam(r, "id"), func(run *session.Runner) error {
		var err error
		out, err = fn(run)
		return err
	})
	if err != nil {
		s.fail(w, err, "Failed to update session")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	workout, err := s.sessions.Finish(r.Context(), userIDFromContext(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, "Failed to save completed workout")
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

// handleSessionClock streams the elapsed seconds as server-sent events
// until the client goes away or the session ends.
func (s *Server) handleSessionClock(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	id := chi.URLParam(r, "id")
	elapsed, err := s.sessions.Elapsed(uid, id)
	if err != nil {
		s.fail(w, err, "Failed to load session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(d time.Duration) {
		fmt.Fprintf(w, "event: tick\ndata: %s\n\n", mustJSON(map[string]int{"elapsed_seconds": int(d / time.Second)}))
		flusher.Flush()
	}
	send(elapsed)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	session.Tick(ctx, s.tick, func(time.Time) {
		d, err := s.sessions.Elapsed(uid, id)
		if err != nil {
			fmt.Fprint(w, "event: end\ndata: {}\n\n")
			flusher.Flush()
			cancel()
			return
		}
		send(d)
	})
}

func (s *Server) handleVoiceCall(w http.ResponseWriter, r *http.Request) {
	var call session.FunctionCall
	if !decode(w, r, &call) {
		return
	}
	s.withSession(w, r, func(run *session.Runner) (any, error) {
		ack, events := run.HandleCall(call)
		return map[string]any{"ack": ack, "events": events}, nil
	})
}

func (s *Server) handleVoiceInstructions(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(run *session.Runner) (any, error) {
		return run.SessionUpdate(), nil
	})
}

// handleRealtimeSession mints a realtime credential whose instructions
// describe the current exercise of the workout's running session.
func (s *Server) handleRealtimeSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkoutID string `json:"workout_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.WorkoutID == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: workout_id")
		return
	}

	var cfg llm.SessionConfig
	err := s.sessions.With(userIDFromContext(r), req.WorkoutID, func(run *session.Runner) error {
		cfg = run.VoiceConfig()
		return nil
	})
	if err != nil {
		s.fail(w, err, "Failed to create voice session")
		return
	}

	sess, err := s.realtime.CreateRealtimeSession(r.Context(), cfg)
	if err != nil {
		s.log.Error("realtime session failed", "error", err)
		writeError(w, http.StatusInternalServerError, llm.UserMessage(err, "Failed to create voice session. Please try again."))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
