package session

import (
	"context"
	"errors"
	"sync"
)

// Registry keeps one Store per chat, loading it on first use.
type Registry struct {
	backend func(chatID int64) Backend
	opts    []Option

	mu     sync.Mutex
	stores map[int64]*Store
}

func NewRegistry(backend func(chatID int64) Backend, opts ...Option) *Registry {
	return &Registry{
		backend: backend,
		opts:    opts,
		stores:  make(map[int64]*Store),
	}
}

// Get returns the chat's store, initialising it from its backend the first
// time the chat is seen.
func (r *Registry) Get(ctx context.Context, chatID int64) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[chatID]; ok {
		return s
	}
	s := New(r.backend(chatID), r.opts...)
	s.Init(ctx)
	r.stores[chatID] = s
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Flush waits for the pending writes of every loaded store.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range stores {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
