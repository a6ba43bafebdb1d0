package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/session"
)

type ctxKey string

const StoreKey ctxKey = "store"

// GetStore extracts the chat's session store from context.
func GetStore(ctx context.Context) *session.Store {
	s, ok := ctx.Value(StoreKey).(*session.Store)
	if !ok {
		return nil
	}
	return s
}

// WithStore returns a context carrying s.
func WithStore(ctx context.Context, s *session.Store) context.Context {
	return context.WithValue(ctx, StoreKey, s)
}

// StoreLoader returns middleware that loads the chat's tabs into context.
func StoreLoader(reg *session.Registry) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if id := chatID(update); id != 0 {
				ctx = WithStore(ctx, reg.Get(ctx, id))
			}
			next(ctx, b, update)
		}
	}
}
