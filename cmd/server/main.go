// Package main is the entry point for the snipstash server.
//
// main stays minimal: load configuration, build the logger and the
// session mirror, hand everything to internal/server. All logic lives in
// the imported packages, which keeps it testable without running main.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dhkim/snipstash/internal/config"
	"github.com/dhkim/snipstash/internal/server"
	"github.com/dhkim/snipstash/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional; env vars override)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).
			Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	// The data directory holds the SQLite file; create it up front so a
	// missing directory fails loudly here rather than inside the driver.
	if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	mirror := session.NewMirror()

	srv, err := server.New(cfg, mirror, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Resolve the mirror's initial lookup. A fresh process has no session
	// to restore, so the lookup settles the mirror into the signed-out
	// state; subsequent sign-ins update it through the auth service.
	if err := mirror.Start(context.Background(), func(context.Context) (*session.Principal, error) {
		return nil, nil
	}); err != nil {
		logger.Warn("initial session lookup failed", slog.String("error", err.Error()))
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// parseLogLevel maps the configured level name onto a slog.Level,
// defaulting to Info on anything unrecognised.
func parseLogLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
