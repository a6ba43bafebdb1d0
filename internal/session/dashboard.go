package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

// SummaryBackend persists dashboard summaries per user.
// storage.SummaryAdapter implements it.
type SummaryBackend interface {
	Load(ctx context.Context, userID int64) []domain.ChatSummary
	Save(ctx context.Context, userID int64, list []domain.ChatSummary) error
}

// Dashboard manages the chats a user keeps for later. Opening one merges it
// into a Store as a tab, keyed by id.
type Dashboard struct {
	backend  SummaryBackend
	maxChats int
	now      func() time.Time
	newID    func() string

	mu sync.Mutex
}

func NewDashboard(backend SummaryBackend, maxChats int) *Dashboard {
	if maxChats <= 0 {
		maxChats = config.DefaultMaxChats
	}
	return &Dashboard{
		backend:  backend,
		maxChats: maxChats,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (d *Dashboard) MaxChats() int {
	return d.maxChats
}

func (d *Dashboard) List(ctx context.Context, userID int64) []domain.ChatSummary {
	return d.backend.Load(ctx, userID)
}

// Add creates a summary at the front of the user's list.
func (d *Dashboard) Add(ctx context.Context, userID int64, level domain.EducationLevel, subject, uploaded string) (domain.ChatSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.backend.Load(ctx, userID)
	if len(list) >= d.maxChats {
		return domain.ChatSummary{}, fmt.Errorf("%w (%d)", domain.ErrMaxChats, d.maxChats)
	}

	s := domain.ChatSummary{
		ID:              d.newID(),
		Name:            fmt.Sprintf("%s - %s", level, subject),
		Messages:        []domain.Message{},
		Model:           config.DefaultModel,
		LastUpdated:     d.now(),
		EducationLevel:  level,
		Subject:         subject,
		UploadedContent: uploaded,
	}
	if err := d.backend.Save(ctx, userID, append([]domain.ChatSummary{s}, list...)); err != nil {
		return domain.ChatSummary{}, fmt.Errorf("add chat: %w", err)
	}
	return s, nil
}

func (d *Dashboard) Remove(ctx context.Context, userID int64, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.backend.Load(ctx, userID)
	out := list[:0]
	found := false
	for _, s := range list {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		return domain.ErrSummaryNotFound
	}
	if err := d.backend.Save(ctx, userID, out); err != nil {
		return fmt.Errorf("remove chat: %w", err)
	}
	return nil
}

// Open makes the summary a tab in store. A tab with the same id is activated
// instead of duplicated. It reports whether a new tab was inserted.
func (d *Dashboard) Open(ctx context.Context, userID int64, id string, store *Store) (domain.Tab, bool, error) {
	var summary *domain.ChatSummary
	for _, s := range d.backend.Load(ctx, userID) {
		if s.ID == id {
			summary = &s
			break
		}
	}
	if summary == nil {
		return domain.Tab{}, false, domain.ErrSummaryNotFound
	}

	tab, existed := store.OpenTab(TabFromSummary(*summary, d.now()))
	return tab, !existed, nil
}

// TabFromSummary builds the tab a summary opens as. Summaries without history
// get the usual seed pair; uploaded material follows as extra system context.
func TabFromSummary(s domain.ChatSummary, now time.Time) domain.Tab {
	msgs := make([]domain.Message, 0, len(s.Messages)+3)
	if len(s.Messages) == 0 {
		msgs = append(msgs, SeedMessages(s.ID, s.EducationLevel, s.Subject)...)
	} else {
		msgs = append(msgs, s.Messages...)
	}
	if s.UploadedContent != "" {
		msgs = append(msgs, domain.Message{
			Role:    domain.RoleSystem,
			Content: "The student uploaded the following material for this chat:\n" + s.UploadedContent,
			TabID:   s.ID,
		})
	}

	return domain.Tab{
		ID:              s.ID,
		Title:           s.Name,
		EducationLevel:  s.EducationLevel,
		Subject:         s.Subject,
		Messages:        msgs,
		Model:           s.Model,
		LastUpdated:     now,
		UploadedContent: s.UploadedContent,
	}
}
