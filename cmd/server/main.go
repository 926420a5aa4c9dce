package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cardpress/cardpress/internal/config"
	"github.com/cardpress/cardpress/internal/logging"
	"github.com/cardpress/cardpress/internal/match"
	"github.com/cardpress/cardpress/internal/photo"
	"github.com/cardpress/cardpress/internal/session"
	"github.com/cardpress/cardpress/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_roster_size", cfg.Upload.MaxRosterSize,
		"max_archive_size", cfg.Upload.MaxArchiveSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Pick the photo post-processor: remote service when configured,
	// otherwise photos are stored as uploaded.
	var processor photo.Processor = photo.Passthrough{}
	if cfg.Photo.Endpoint != "" {
		processor = photo.NewHTTPProcessor(cfg.Photo.Endpoint, cfg.Photo.Timeout)
		slog.Info("photo post-processing enabled", "endpoint", cfg.Photo.Endpoint)
	}

	session.PassTimeout = cfg.Matcher.PassTimeout

	batch := session.New(processor, match.ImagePolicy{
		MinWidth:  cfg.Matcher.MinWidth,
		MinHeight: cfg.Matcher.MinHeight,
		MinAspect: cfg.Matcher.MinAspect,
		MaxAspect: cfg.Matcher.MaxAspect,
	}, slog.Default())

	server := web.NewServer(batch, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
