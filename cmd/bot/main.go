package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	tutorme "github.com/set-night/tutorme"
	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/dispatch"
	"github.com/set-night/tutorme/internal/handler"
	"github.com/set-night/tutorme/internal/middleware"
	"github.com/set-night/tutorme/internal/provider"
	"github.com/set-night/tutorme/internal/repository"
	"github.com/set-night/tutorme/internal/session"
	"github.com/set-night/tutorme/internal/storage"
	"github.com/set-night/tutorme/internal/telegram"
	"github.com/set-night/tutorme/internal/tutor"
)

func chatPrefix(chatID int64) string {
	return fmt.Sprintf("chat:%d:", chatID)
}

func main() {
	// Load configuration
	cfg, err := config.LoadBot()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(tutorme.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Completions go to a remote server when configured, otherwise in-process
	var completer dispatch.Completer
	if cfg.CompletionURL != "" {
		completer = completion.NewClient(cfg.CompletionURL)
	} else {
		llm, err := provider.New(cfg.Providers())
		if err != nil {
			slog.Error("failed to create provider", "error", err)
			os.Exit(1)
		}
		completer = tutor.NewService(llm, nil)
	}

	kv := storage.NewPostgresKV(pool)
	registry := session.NewRegistry(func(chatID int64) session.Backend {
		return storage.NewTabAdapter(storage.Namespace(kv, chatPrefix(chatID)))
	})

	// One dashboard per chat so concurrent updates share its lock
	var dashboards sync.Map
	dashboardFor := func(chatID int64) *session.Dashboard {
		if d, ok := dashboards.Load(chatID); ok {
			return d.(*session.Dashboard)
		}
		backend := storage.NewSummaryAdapter(storage.Namespace(kv, chatPrefix(chatID)))
		d, _ := dashboards.LoadOrStore(chatID, session.NewDashboard(backend, cfg.MaxChats))
		return d.(*session.Dashboard)
	}

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewChatLimiter(config.RateLimitPerMinute, config.RateLimitPerMinute/2), nil),
			middleware.StoreLoader(registry),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleDefault(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Setup structured logging, forwarding errors to the log chat
	logger, closeLog := config.SetupLogger(cfg.LogFile, config.ParseLogLevel(cfg.LogLevel),
		telegram.NewAlertHandler(b, cfg.LogTelegramChatID, cfg.LogTopicError))
	defer closeLog()
	slog.SetDefault(logger)

	if cfg.CompletionURL != "" {
		slog.Info("using remote completion server", "url", cfg.CompletionURL)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:        b,
		Registry:   registry,
		Dashboards: dashboardFor,
		Completer:  completer,
	})

	// Register all handlers
	h.Register()

	// Start bot
	slog.Info("starting bot")
	b.Start(ctx)

	// Let pending tab writes land before exiting
	flushCtx, cancel := context.WithTimeout(context.Background(), config.PersistTimeout)
	defer cancel()
	if err := registry.Flush(flushCtx); err != nil {
		slog.Error("failed to flush tabs", "error", err)
	}
	slog.Info("bot stopped gracefully", "chats", registry.Len())
}
