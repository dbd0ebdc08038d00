package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/logancoach/logan/internal/mcp"
	"github.com/logancoach/logan/internal/workoutparse"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	apiURL := flag.String("api", "", "Logan server URL (e.g. https://logan.tail1234.ts.net)")
	token := flag.String("token", os.Getenv("LOGAN_TOKEN"), "bearer token for the Logan API (default $LOGAN_TOKEN)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("logan-mcp", Version)
		return
	}

	if *apiURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: logan-mcp -api <URL> [-token <token>]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("logan-mcp starting", "version", Version, "api", *apiURL)

	s := mcp.New(mcp.NewHTTPClient(*apiURL, *token), workoutparse.New(log), Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
