package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/logancoach/logan/internal/bg"
	"github.com/logancoach/logan/internal/coach"
	"github.com/logancoach/logan/internal/config"
	"github.com/logancoach/logan/internal/llm"
	"github.com/logancoach/logan/internal/session"
	"github.com/logancoach/logan/internal/storage"
)

// Realtime mints ephemeral credentials for the voice coach.
type Realtime interface {
	CreateRealtimeSession(ctx context.Context, cfg llm.SessionConfig) (*llm.RealtimeSession, error)
}

// Deps are the services the handlers call into.
type Deps struct {
	Store    storage.Store
	Coach    *coach.Service
	Sessions *session.Manager
	Realtime Realtime
	Tasks    *bg.Runner
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     storage.Store
	coach     *coach.Service
	sessions  *session.Manager
	realtime  Realtime
	tasks     *bg.Runner
	mcp       http.Handler
	log       *slog.Logger
	jwtSecret string
	tailscale WhoIser
	limiter   *userLimiter
	tick      time.Duration
	now       func() time.Time
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(d Deps, auth config.AuthConfig, limits config.RateLimitConfig, log *slog.Logger) *Server {
	s := &Server{
		store:     d.Store,
		coach:     d.Coach,
		sessions:  d.Sessions,
		realtime:  d.Realtime,
		tasks:     d.Tasks,
		mcp:       d.MCP,
		log:       log,
		jwtSecret: auth.JWTSecret,
		limiter:   newUserLimiter(limits.PerMinute, limits.Burst),
		tick:      time.Second,
		now:       time.Now,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale identifies callers by their tailnet login when no token
// secret is configured.
func (s *Server) SetTailscale(lc WhoIser) {
	s.tailscale = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The local decision table needs no identity and no LLM.
	s.router.Post("/compose-reply", s.handleComposeReply)

	s.router.Group(func(r chi.Router) {
		r.Use(s.identify)

		r.Get("/me", s.handleMe)

		r.Route("/workouts", func(r chi.Router) {
			r.Get("/", s.handleListWorkouts)
			r.Post("/", s.handleCreateWorkout)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetWorkout)
				r.Put("/", s.handleUpdateWorkout)
				r.Delete("/", s.handleDeleteWorkout)
				r.Post("/status", s.handleWorkoutStatus)

				r.Route("/session", func(r chi.Router) {
					r.Post("/", s.handleStartSession)
					r.Get("/", s.handleGetSession)
					r.Patch("/sets", s.handleUpdateSet)
					r.Post("/sets/complete", s.handleCompleteSet)
					r.Post("/navigate", s.handleNavigate)
					r.Post("/finish", s.handleFinishSession)
					r.Get("/clock", s.handleSessionClock)
					r.Post("/voice", s.handleVoiceCall)
					r.Get("/instructions", s.handleVoiceInstructions)
				})
			})
		})

		r.Post("/workout-plans", s.handleSchedulePlan)
		r.Get("/stats", s.handleStats)
		r.Get("/profile", s.handleGetProfile)
		r.Delete("/profile", s.handleResetProfile)
		r.Get("/chats/active", s.handleActiveChat)
		r.Get("/chats/{id}/messages", s.handleChatMessages)

		// Every route below calls the LLM provider.
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.RateLimit)
			r.Post("/chat-with-logan", s.handleChat)
			r.Post("/generate-workout", s.handleGenerateWorkout)
			r.Post("/generate-simple-workout", s.handleGenerateSimpleWorkout)
			r.Post("/generate-workout-plan", s.handleGenerateWorkoutPlan)
			r.Post("/realtime-session", s.handleRealtimeSession)
		})

		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
		}
	})
}
