package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"github.com/set-night/tutorme/internal/telegram"
)

const rateLimitedText = "⏳ Too many messages. Please wait a moment."

// ChatLimiter keeps one token bucket per chat.
type ChatLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewChatLimiter allows perMinute messages per chat on average, with bursts
// of up to burst messages.
func NewChatLimiter(perMinute, burst int) *ChatLimiter {
	return &ChatLimiter{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(burst, 1),
		now:      time.Now,
	}
}

func (l *ChatLimiter) Allow(chatID int64) bool {
	l.mu.Lock()
	lim, ok := l.limiters[chatID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[chatID] = lim
	}
	now := l.now()
	l.mu.Unlock()
	return lim.AllowN(now, 1)
}

// RateLimit returns middleware that enforces per-chat rate limits. Notices go
// through s, or through the bot itself when s is nil.
func RateLimit(l *ChatLimiter, s telegram.Sender) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not callbacks or other updates)
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			id := update.Message.Chat.ID
			if !l.Allow(id) {
				slog.Debug("rate limited", "chat_id", id)
				var sender telegram.Sender = b
				if s != nil {
					sender = s
				}
				if err := telegram.SendText(ctx, sender, id, rateLimitedText, nil); err != nil {
					slog.Warn("send rate limit notice", "error", err, "chat_id", id)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}
