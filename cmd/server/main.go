package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/lynq/internal/config"
	"github.com/JonMunkholm/lynq/internal/core"
	"github.com/JonMunkholm/lynq/internal/logging"
	"github.com/JonMunkholm/lynq/internal/pipeline"
	"github.com/JonMunkholm/lynq/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"upload_max_rows", cfg.Upload.MaxRows,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"preset", cfg.Cleaning.PresetFile,
	)

	defaults := pipeline.DefaultConfig()
	if cfg.Cleaning.PresetFile != "" {
		defaults, err = pipeline.LoadPreset(cfg.Cleaning.PresetFile)
		if err != nil {
			slog.Error("failed to load cleaning preset", "error", err)
			os.Exit(1)
		}
		slog.Info("cleaning preset loaded", "steps", defaults.Steps(), "dedupe", defaults.Dedupe)
	}

	opts := core.OptionsFrom(cfg)
	opts.Defaults = defaults
	service := core.NewService(opts)

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.Limiter().ActiveCount(); active > 0 {
			slog.Info("waiting for datasets in progress", "active", active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
