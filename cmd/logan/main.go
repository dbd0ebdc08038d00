package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/logancoach/logan/internal/bg"
	"github.com/logancoach/logan/internal/coach"
	"github.com/logancoach/logan/internal/config"
	"github.com/logancoach/logan/internal/llm"
	"github.com/logancoach/logan/internal/logger"
	"github.com/logancoach/logan/internal/mcp"
	"github.com/logancoach/logan/internal/memory"
	"github.com/logancoach/logan/internal/server"
	"github.com/logancoach/logan/internal/session"
	"github.com/logancoach/logan/internal/storage"
	"github.com/logancoach/logan/internal/workoutparse"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging, os.Stdout)
	defer logger.Flush()
	log.Info("Logan starting", "version", Version, "storage", cfg.Storage.Driver)

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log, *migrateOnly)
	if err != nil {
		log.Error("storage setup failed", "error", err)
		os.Exit(1)
	}
	if store == nil {
		log.Info("migrate-only: exiting")
		return
	}
	defer store.Close()

	llmClient := llm.New(cfg.LLM)
	if !llmClient.Configured() {
		log.Warn("no LLM API key configured; chat and generation will answer with a configuration error")
	}

	tasks := bg.NewRunner(log)

	memStore, closeMemory, err := openMemory(cfg.Memory, log)
	if err != nil {
		log.Error("memory setup failed", "error", err)
		os.Exit(1)
	}
	defer closeMemory()
	mem := memory.NewService(memStore, tasks, log, cfg.Memory.Timeout)

	parser := workoutparse.New(log)
	coachSvc := coach.NewService(llmClient, store, mem, parser, tasks, log)
	sessions := session.NewManager(store, tasks, log)

	// MCP over streamable HTTP, scoped to the identified caller.
	mcpHandler := mcpserver.NewStreamableHTTPServer(
		mcp.New(store, parser, Version, log),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithUserID(ctx, server.UserID(r))
		}),
	)

	srv := server.New(server.Deps{
		Store:    store,
		Coach:    coachSvc,
		Sessions: sessions,
		Realtime: llmClient,
		Tasks:    tasks,
		MCP:      mcpHandler,
	}, cfg.Auth, cfg.RateLimit, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	// Profile, memory and history writes still in flight get the rest of the budget.
	if err := tasks.Wait(shutdownCtx); err != nil {
		log.Warn("background writes did not finish", "error", err)
	}
	log.Info("server stopped", "open_sessions", sessions.Active())
}

// openStore returns the configured repository. For postgres it applies
// migrations first; with migrateOnly it stops there and returns nil.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger, migrateOnly bool) (storage.Store, error) {
	if cfg.Storage.Driver == "memory" {
		if migrateOnly {
			return nil, nil
		}
		log.Warn("using in-memory storage; data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	dsn := cfg.Database.DSN()
	version, err := storage.RunMigrations(dsn, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations applied", "version", version)
	if migrateOnly {
		return nil, nil
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	log.Info("database connected")
	return db, nil
}

// openMemory opens the configured memory provider. A disabled memory
// yields a nil store, which the memory service treats as off.
func openMemory(cfg config.MemoryConfig, log *slog.Logger) (memory.Store, func(), error) {
	noop := func() {}
	if !cfg.Enabled {
		log.Info("memory disabled")
		return nil, noop, nil
	}

	switch cfg.Provider {
	case "sqlite":
		db, err := memory.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		log.Info("memory enabled", "provider", "sqlite", "path", cfg.SQLitePath)
		return db, func() { _ = db.Close() }, nil
	default:
		log.Info("memory enabled", "provider", "mem0")
		return memory.NewMem0(cfg.BaseURL, cfg.APIKey), noop, nil
	}
}
