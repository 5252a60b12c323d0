// Package main is the entry point for the jobtrack API server.
//
// main stays minimal: read configuration, build a logger, make sure the
// database directory exists, and hand everything to internal/server.
//
// Configuration comes from the environment (or a .env file in the working
// directory). See internal/config for every variable; the only required one
// is JWT_SECRET:
//
//	JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/server
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/jobtrack/internal/config"
	"github.com/sakif/jobtrack/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Text logs locally, JSON anywhere a log collector reads them.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var logger *slog.Logger
	if cfg.IsLocal() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	// A local SQLite file needs its directory; remote libsql URLs and
	// in-memory databases do not.
	if isLocalFile(cfg.DatabaseURL) {
		dir := filepath.Dir(cfg.DatabaseURL)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func isLocalFile(dbURL string) bool {
	if dbURL == ":memory:" {
		return false
	}
	for _, prefix := range []string{"libsql://", "wss://", "file::memory:"} {
		if strings.HasPrefix(dbURL, prefix) {
			return false
		}
	}
	return true
}
