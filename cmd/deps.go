package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/kozaktomas/face-compare/internal/compare"
	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/database/postgres"
	"github.com/kozaktomas/face-compare/internal/intake"
	"github.com/kozaktomas/face-compare/internal/preview"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/kozaktomas/face-compare/internal/workflow"
)

// newLogger returns the logger handed to library packages. Only warnings
// are shown unless --verbose is set.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore selects the marker store: PostgreSQL when DATABASE_URL is set,
// the marker file otherwise. The returned func releases the store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, func(), error) {
	if cfg.Database.URL == "" {
		return session.NewFileStore(cfg.Session.MarkerPath), func() {}, nil
	}

	pool, err := postgres.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return postgres.NewMarkerStore(pool), func() { pool.Close() }, nil
}

// newClient creates the comparison service client from configuration.
func newClient(cfg *config.Config) (*compare.Client, error) {
	client, err := compare.NewClient(cfg.Service.URL, cfg.Service.Timeout)
	if err != nil {
		return nil, err
	}
	if err := client.SetCaptureDir(captureDir); err != nil {
		return nil, err
	}
	return client, nil
}

// newController wires the workflow controller to the service client.
func newController(cfg *config.Config, client workflow.Comparer, logger *slog.Logger) *workflow.Controller {
	return workflow.NewController(
		intake.NewValidator(&cfg.Messages),
		client,
		preview.NewThumbnailDecoder(cfg.Preview.MaxSize),
		&cfg.Messages,
		logger,
	)
}

// openGate opens the marker store and the session gate on it.
func openGate(ctx context.Context, cfg *config.Config, resetter session.Resetter, logger *slog.Logger) (*session.Gate, func(), error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	gate, err := session.NewGate(ctx, store, cfg.Gate.GetPassword(), resetter, logger)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return gate, closeStore, nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// warnf prints to stdout unless JSON output was requested.
func warnf(jsonOutput bool, format string, args ...any) {
	if !jsonOutput {
		fmt.Printf(format, args...)
	}
}
