package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

// TabAdapter persists the whole tab list as one JSON blob.
type TabAdapter struct {
	kv  KV
	key string
}

func NewTabAdapter(kv KV) *TabAdapter {
	return &TabAdapter{kv: kv, key: config.TabsKey}
}

// Load returns the stored tabs, deduplicated by id. Missing, unreadable or
// corrupt data yields an empty list; the error is logged, never returned.
func (a *TabAdapter) Load(ctx context.Context) []domain.Tab {
	raw, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		slog.Warn("load tabs", "error", err, "key", a.key)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var tabs []domain.Tab
	if err := json.Unmarshal([]byte(raw), &tabs); err != nil {
		slog.Warn("discarding unreadable tabs", "error", err, "key", a.key)
		return nil
	}

	return Dedup(nil, tabs)
}

// Save overwrites the stored list with tabs.
func (a *TabAdapter) Save(ctx context.Context, tabs []domain.Tab) error {
	if tabs == nil {
		tabs = []domain.Tab{}
	}
	data, err := json.Marshal(tabs)
	if err != nil {
		return fmt.Errorf("marshal tabs: %w", err)
	}
	if err := a.kv.Set(ctx, a.key, string(data)); err != nil {
		return fmt.Errorf("save tabs: %w", err)
	}
	return nil
}

// Dedup returns the incoming tabs whose id is neither empty, among known, nor
// already seen earlier in incoming. The first occurrence wins.
func Dedup(known, incoming []domain.Tab) []domain.Tab {
	seen := make(map[string]struct{}, len(known)+len(incoming))
	for _, t := range known {
		seen[t.ID] = struct{}{}
	}

	out := make([]domain.Tab, 0, len(incoming))
	for _, t := range incoming {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
