package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/set-night/tutorme/internal/domain"
)

// writer saves tab snapshots in the background. Snapshots scheduled while a
// save is running are coalesced so only the newest one is written next.
type writer struct {
	save    func(ctx context.Context, tabs []domain.Tab) error
	timeout time.Duration

	mu         sync.Mutex
	pending    []domain.Tab
	hasPending bool
	running    bool
	idle       chan struct{}
}

func newWriter(save func(ctx context.Context, tabs []domain.Tab) error, timeout time.Duration) *writer {
	idle := make(chan struct{})
	close(idle)
	return &writer{save: save, timeout: timeout, idle: idle}
}

func (w *writer) schedule(tabs []domain.Tab) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = tabs
	w.hasPending = true
	if w.running {
		return
	}
	w.running = true
	w.idle = make(chan struct{})
	go w.loop(w.idle)
}

func (w *writer) loop(idle chan struct{}) {
	for {
		w.mu.Lock()
		if !w.hasPending {
			w.running = false
			close(idle)
			w.mu.Unlock()
			return
		}
		snapshot := w.pending
		w.pending = nil
		w.hasPending = false
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.save(ctx, snapshot); err != nil {
			slog.Warn("persist tabs", "error", err, "tabs", len(snapshot))
		}
		cancel()
	}
}

// flush blocks until every scheduled snapshot has been written or ctx ends.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
