package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

// SummaryAdapter persists a user's dashboard chat summaries. The list lives
// under its own key, independent of the tab list.
type SummaryAdapter struct {
	kv KV
}

func NewSummaryAdapter(kv KV) *SummaryAdapter {
	return &SummaryAdapter{kv: kv}
}

func SummaryKey(userID int64) string {
	return config.SummaryKeyPrefix + strconv.FormatInt(userID, 10)
}

// Load returns the user's summaries. Like the tab list, unreadable data is
// treated as empty.
func (a *SummaryAdapter) Load(ctx context.Context, userID int64) []domain.ChatSummary {
	key := SummaryKey(userID)
	raw, ok, err := a.kv.Get(ctx, key)
	if err != nil {
		slog.Warn("load chat summaries", "error", err, "key", key)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var list []domain.ChatSummary
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		slog.Warn("discarding unreadable chat summaries", "error", err, "key", key)
		return nil
	}

	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, s := range list {
		if _, dup := seen[s.ID]; dup || s.ID == "" {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (a *SummaryAdapter) Save(ctx context.Context, userID int64, list []domain.ChatSummary) error {
	if list == nil {
		list = []domain.ChatSummary{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal chat summaries: %w", err)
	}
	if err := a.kv.Set(ctx, SummaryKey(userID), string(data)); err != nil {
		return fmt.Errorf("save chat summaries: %w", err)
	}
	return nil
}
