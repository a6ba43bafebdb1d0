package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tutorme "github.com/set-night/tutorme"
	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/provider"
	"github.com/set-night/tutorme/internal/repository"
	"github.com/set-night/tutorme/internal/server"
	"github.com/set-night/tutorme/internal/tutor"
)

func main() {
	// Load configuration
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger, closeLog := config.SetupLogger(cfg.LogFile, config.ParseLogLevel(cfg.LogLevel))
	defer closeLog()
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llm, err := provider.New(cfg.Providers())
	if err != nil {
		slog.Error("failed to create provider", "error", err)
		os.Exit(1)
	}

	opts := server.Options{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}
	if lister, ok := llm.(provider.ModelLister); ok {
		opts.Models = lister
	}

	// Conversations are only available with a database
	var recorder tutor.ConversationRecorder
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(tutorme.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		repo := repository.NewConversationRepo(pool)
		recorder = repo
		opts.Conversations = repo
	} else {
		slog.Warn("DATABASE_URL not set, conversation endpoints disabled")
	}

	svc := tutor.NewService(llm, recorder)
	srv := server.New(svc, opts)

	slog.Info("starting server", "port", cfg.Port, "provider", llm.Name())
	if err := server.Run(ctx, fmt.Sprintf(":%d", cfg.Port), srv.Handler()); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}
