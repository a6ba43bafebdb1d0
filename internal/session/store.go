package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

// Backend loads and saves the full tab list. storage.TabAdapter implements it.
type Backend interface {
	Load(ctx context.Context) []domain.Tab
	Save(ctx context.Context, tabs []domain.Tab) error
}

// Store owns the tabs of one device and the active pointer. All mutations are
// serialised; each one schedules a background write of the full tab list.
type Store struct {
	mu       sync.Mutex
	tabs     []domain.Tab
	activeID string

	backend Backend
	writer  *writer

	newID        func() string
	now          func() time.Time
	defaultModel string
}

type Option func(*Store)

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func WithDefaultModel(model string) Option {
	return func(s *Store) { s.defaultModel = model }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		newID:        uuid.NewString,
		now:          time.Now,
		defaultModel: config.DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.writer = newWriter(backend.Save, config.PersistTimeout)
	return s
}

// Init replaces the in-memory state with what the backend holds. An empty or
// unreadable backend leaves the store with a single default tab.
func (s *Store) Init(ctx context.Context) {
	loaded := s.backend.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tabs = make([]domain.Tab, 0, len(loaded))
	for _, t := range loaded {
		s.tabs = append(s.tabs, s.normalize(t))
	}
	s.activeID = ""
	if len(s.tabs) == 0 {
		s.insertDefaultLocked()
		s.persistLocked()
		return
	}
	s.activeID = s.tabs[0].ID
}

// normalize fills fields missing from tabs written by older versions.
func (s *Store) normalize(t domain.Tab) domain.Tab {
	if t.EducationLevel == "" {
		t.EducationLevel = domain.EducationLevel(config.DefaultLevel)
	}
	if t.Subject == "" {
		t.Subject = config.DefaultSubject
	}
	if t.Model == "" {
		t.Model = s.defaultModel
	}
	if strings.TrimSpace(t.Title) == "" {
		t.Title = domain.DefaultTitle(t.EducationLevel, t.Subject)
	}
	if t.LastUpdated.IsZero() {
		t.LastUpdated = s.now()
	}
	if t.Messages == nil {
		t.Messages = []domain.Message{}
	}
	for i := range t.Messages {
		if t.Messages[i].TabID == "" {
			t.Messages[i].TabID = t.ID
		}
	}
	return t
}

func (s *Store) newTab(level domain.EducationLevel, subject string) domain.Tab {
	id := s.newID()
	return domain.Tab{
		ID:             id,
		Title:          domain.DefaultTitle(level, subject),
		EducationLevel: level,
		Subject:        subject,
		Messages:       SeedMessages(id, level, subject),
		Model:          s.defaultModel,
		LastUpdated:    s.now(),
	}
}

func (s *Store) insertDefaultLocked() domain.Tab {
	return s.insertFrontLocked(s.newTab(domain.EducationLevel(config.DefaultLevel), config.DefaultSubject))
}

func (s *Store) insertFrontLocked(t domain.Tab) domain.Tab {
	s.tabs = append([]domain.Tab{t}, s.tabs...)
	s.activeID = t.ID
	return t.Clone()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tabs {
		if s.tabs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	snapshot := make([]domain.Tab, len(s.tabs))
	for i := range s.tabs {
		snapshot[i] = s.tabs[i].Clone()
	}
	s.writer.schedule(snapshot)
}

// CreateTab adds a seeded tab at the front of the list and activates it.
func (s *Store) CreateTab(level domain.EducationLevel, subject string) domain.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.insertFrontLocked(s.newTab(level, subject))
	s.persistLocked()
	return t
}

// SwitchTab activates id and returns the id that ended up active. Unknown ids
// select the first tab.
func (s *Store) SwitchTab(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) >= 0 {
		s.activeID = id
	} else if len(s.tabs) > 0 {
		s.activeID = s.tabs[0].ID
	}
	return s.activeID
}

// DeleteTab removes a tab. Removing the last tab creates a default one, and
// removing the active tab activates the first remaining tab. It reports
// whether the id existed.
func (s *Store) DeleteTab(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)

	switch {
	case len(s.tabs) == 0:
		s.insertDefaultLocked()
	case s.activeID == id:
		s.activeID = s.tabs[0].ID
	}
	s.persistLocked()
	return true
}

// RenameTab sets a new title. Blank titles are ignored.
func (s *Store) RenameTab(id, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tabs[i].Title = title
	s.tabs[i].LastUpdated = s.now()
	s.persistLocked()
	return true
}

// SetModel switches the model a tab talks to.
func (s *Store) SetModel(id, model string) bool {
	if model == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tabs[i].Model = model
	s.tabs[i].LastUpdated = s.now()
	s.persistLocked()
	return true
}

// AppendMessage appends msg to the tab with the given id and returns the
// updated tab. The message is stamped with the tab id.
func (s *Store) AppendMessage(tabID string, msg domain.Message) (domain.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(tabID)
	if i < 0 {
		return domain.Tab{}, domain.ErrTabNotFound
	}
	msg.TabID = tabID
	s.tabs[i].Messages = append(s.tabs[i].Messages, msg)
	s.tabs[i].LastUpdated = s.now()
	s.persistLocked()
	return s.tabs[i].Clone(), nil
}

// OpenTab activates the tab with t's id when one exists; otherwise t is
// inserted at the front. It reports whether the tab already existed.
func (s *Store) OpenTab(t domain.Tab) (domain.Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(t.ID); i >= 0 {
		s.activeID = t.ID
		return s.tabs[i].Clone(), true
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	opened := s.insertFrontLocked(s.normalize(t.Clone()))
	s.persistLocked()
	return opened, false
}

// Tabs returns a copy of all tabs in display order.
func (s *Store) Tabs() []domain.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Tab, len(s.tabs))
	for i := range s.tabs {
		out[i] = s.tabs[i].Clone()
	}
	return out
}

func (s *Store) Tab(id string) (domain.Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Tab{}, false
	}
	return s.tabs[i].Clone(), true
}

func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns the active tab. Before Init it returns false.
func (s *Store) Active() (domain.Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(s.activeID)
	if i < 0 {
		return domain.Tab{}, false
	}
	return s.tabs[i].Clone(), true
}

// Flush waits for pending background writes.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}
