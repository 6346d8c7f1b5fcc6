// Package main is the entry point for the README widget server.
//
// The main package is kept minimal. Its job is to:
// 1. Read configuration (.env, an optional config file, environment variables)
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/readme-widgets/internal/config"
	"github.com/sakif/readme-widgets/internal/server"
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML, TOML or JSON config file")
	flag.Parse()

	// === 1. LOAD .env ===
	// A missing .env is normal in production, where the environment is set by
	// the process manager.
	envErr := godotenv.Load()

	// === 2. READ CONFIGURATION ===
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("could not read .env", slog.String("error", envErr.Error()))
	}

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set: write endpoints are open to everyone")
	}
	if cfg.GitHubToken == "" {
		logger.Warn("GITHUB_TOKEN not set: GitHub allows 60 unauthenticated requests per hour")
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger, server.Deps{})
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
