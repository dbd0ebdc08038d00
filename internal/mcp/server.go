// Package mcp exposes Logan's workouts and coaching helpers as Model
// Context Protocol tools and resources.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/logancoach/logan/internal/workoutparse"
)

type contextKey int

const userIDKey contextKey = iota

// DefaultUserID is the user tools act for when the transport set none.
const DefaultUserID = "local"

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, parser *workoutparse.Parser, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Logan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Logan fitness coach. Browse the user's workouts and stats, read their fitness profile, and use the coaching helpers to extract intent from a message, compose Logan's reply, or normalise a generated workout. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, parser: parser, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
		server.ServerTool{Tool: toolExtractIntent, Handler: h.extractIntent},
		server.ServerTool{Tool: toolComposeReply, Handler: h.composeReply},
		server.ServerTool{Tool: toolParseWorkout, Handler: h.parseWorkout},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resProfile, Handler: h.profile},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	parser *workoutparse.Parser
	log    *slog.Logger
}

var resRecentWorkouts = mcp.NewResource(
	"logan://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts dated in the last 14 days, newest first"),
	mcp.WithMIMEType("application/json"),
)

var resProfile = mcp.NewResource(
	"logan://profile",
	"Fitness Profile",
	mcp.WithResourceDescription("The user's persisted fitness profile: level, goals, equipment and preferred duration"),
	mcp.WithMIMEType("application/json"),
)
