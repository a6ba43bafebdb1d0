// Package server exposes the completion service and server-stored
// conversations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/provider"
)

const maxBodyBytes = 25 << 20

type Completer interface {
	Complete(ctx context.Context, req completion.Request) (*completion.Response, error)
}

// Conversations is the conversation store; repository.ConversationRepo
// implements it.
type Conversations interface {
	Create(ctx context.Context) (*domain.Conversation, error)
	List(ctx context.Context) ([]domain.Conversation, error)
	AddMessage(ctx context.Context, conversationID int64, role domain.Role, content string) (*domain.ConversationMessage, error)
	ListMessages(ctx context.Context, conversationID int64) ([]domain.ConversationMessage, error)
}

type Options struct {
	// Conversations is nil when the server runs without a database.
	Conversations Conversations
	// Models reports upstream pricing for /api/models. Optional.
	Models    provider.ModelLister
	RateLimit float64
	RateBurst int
}

type Server struct {
	completer     Completer
	conversations Conversations
	models        provider.ModelLister
	limiter       *ipLimiter
}

func New(completer Completer, opts Options) *Server {
	s := &Server{
		completer:     completer,
		conversations: opts.Conversations,
		models:        opts.Models,
	}
	if opts.RateLimit > 0 {
		s.limiter = newIPLimiter(opts.RateLimit, opts.RateBurst)
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/completion", s.handleCompletion)
	mux.HandleFunc("POST /api/gemini", s.handleCompletion)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	mux.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	mux.HandleFunc("GET /api/conversations/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/conversations/messages", s.handleAddMessage)

	var h http.Handler = mux
	if s.limiter != nil {
		h = rateLimit(s.limiter, h)
	}
	return recoverer(logging(h))
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("http server stopped")
	return nil
}
