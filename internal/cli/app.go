package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/set-night/tutorme/internal/dispatch"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/format"
	"github.com/set-night/tutorme/internal/session"
	"github.com/set-night/tutorme/internal/tutor"
)

// maxAttachBytes mirrors what the completion server accepts in one request.
const maxAttachBytes = 20 << 20

var (
	errUsage      = errors.New("usage")
	errNoActive   = errors.New("no active tab")
	errUnknownCmd = errors.New("unknown command")
)

// App is the terminal front end over one local session store.
type App struct {
	store      *session.Store
	dashboard  *session.Dashboard
	dispatcher *dispatch.Dispatcher
	curriculum *tutor.Curriculum
	userID     int64
	out        io.Writer
}

func NewApp(store *session.Store, dashboard *session.Dashboard, completer dispatch.Completer, userID int64, out io.Writer) *App {
	a := &App{
		store:      store,
		dashboard:  dashboard,
		curriculum: tutor.Default(),
		userID:     userID,
		out:        out,
	}
	a.dispatcher = dispatch.New(store, completer, dispatch.NotifierFunc(func(_ context.Context, n dispatch.Notification) {
		fmt.Fprintln(a.out, warningStyle.Render("⚠ "+n.Title))
	}))
	return a
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// resolveTab accepts a 1-based position from the tab list or a tab id
// (a unique prefix is enough).
func (a *App) resolveTab(ref string) (domain.Tab, error) {
	tabs := a.store.Tabs()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(tabs) {
			return domain.Tab{}, fmt.Errorf("%w: %d", domain.ErrTabNotFound, n)
		}
		return tabs[n-1], nil
	}

	var match *domain.Tab
	for i := range tabs {
		if tabs[i].ID == ref {
			return tabs[i], nil
		}
		if strings.HasPrefix(tabs[i].ID, ref) {
			if match != nil {
				return domain.Tab{}, fmt.Errorf("ambiguous tab id: %s", ref)
			}
			match = &tabs[i]
		}
	}
	if match == nil {
		return domain.Tab{}, fmt.Errorf("%w: %s", domain.ErrTabNotFound, ref)
	}
	return *match, nil
}

func (a *App) ListTabs() {
	tabs := a.store.Tabs()
	active := a.store.ActiveID()

	a.printf("Tabs (%d):\n\n", len(tabs))
	for i, t := range tabs {
		line := fmt.Sprintf("%d. %s [%s, %s]", i+1, t.Title, t.EducationLevel.Label(), t.Model)
		if t.ID == active {
			line = activeStyle.Render("* " + line)
		} else {
			line = "  " + line
		}
		a.printf("%s\n", line)
		a.printf("   %s\n", infoStyle.Render(shortID(t.ID)+"  updated "+t.LastUpdated.Local().Format(time.DateTime)))
	}
}

// NewTab creates and activates a tab for "<level> <subject>".
func (a *App) NewTab(args string) (domain.Tab, error) {
	level, subject, err := a.curriculum.ParseChoice(args)
	if err != nil {
		return domain.Tab{}, err
	}
	if subject == "" {
		return domain.Tab{}, fmt.Errorf("%w: choose a subject for %s: %s",
			errUsage, level.Label(), strings.Join(a.curriculum.Subjects(level), ", "))
	}
	tab := a.store.CreateTab(level, subject)
	a.printf("New tab %s is active.\n", activeStyle.Render(tab.Title))
	return tab, nil
}

func (a *App) SwitchTab(ref string) error {
	tab, err := a.resolveTab(ref)
	if err != nil {
		return err
	}
	a.store.SwitchTab(tab.ID)
	a.printf("Switched to %s.\n", activeStyle.Render(tab.Title))
	return nil
}

func (a *App) DeleteTab(ref string) error {
	tab, err := a.activeOr(ref)
	if err != nil {
		return err
	}
	if !a.store.DeleteTab(tab.ID) {
		return fmt.Errorf("%w: %s", domain.ErrTabNotFound, tab.ID)
	}
	a.printf("Deleted %s.\n", tab.Title)
	if active, ok := a.store.Active(); ok {
		a.printf("Active: %s\n", activeStyle.Render(active.Title))
	}
	return nil
}

func (a *App) RenameTab(ref, title string) error {
	tab, err := a.activeOr(ref)
	if err != nil {
		return err
	}
	if !a.store.RenameTab(tab.ID, title) {
		return fmt.Errorf("%w: title must not be empty", errUsage)
	}
	a.printf("Renamed to %s.\n", strings.TrimSpace(title))
	return nil
}

// SetModel shows the models when id is empty, otherwise retargets the
// active tab.
func (a *App) SetModel(id string) error {
	tab, ok := a.store.Active()
	if !ok {
		return errNoActive
	}
	if id == "" {
		for _, m := range domain.Models {
			mark := "  "
			if m.ID == tab.Model {
				mark = "* "
			}
			a.printf("%s%s (%s)\n", mark, m.Name, m.ID)
		}
		return nil
	}
	m, ok := domain.FindModel(id)
	if !ok {
		return fmt.Errorf("unknown model: %s", id)
	}
	a.store.SetModel(tab.ID, m.ID)
	a.printf("%s now uses %s.\n", tab.Title, m.Name)
	return nil
}

func (a *App) History(limit int) error {
	tab, ok := a.store.Active()
	if !ok {
		return errNoActive
	}
	msgs := tab.Visible()
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	a.printf("%s\n\n", activeStyle.Render(tab.Title))
	for _, m := range msgs {
		a.printMessage(m)
	}
	return nil
}

func (a *App) printMessage(m domain.Message) {
	switch m.Role {
	case domain.RoleUser:
		text := m.Content
		if m.HasAttachment() {
			text = strings.TrimSpace(text + " [attachment]")
		}
		a.printf("%s %s\n\n", userStyle.Render("You:"), text)
	case domain.RoleModel:
		a.printf("%s\n%s\n\n", tutorStyle.Render("Tutor:"), format.PlainText(m.Content))
	}
}

// Ask sends content to the active tab and prints the reply.
func (a *App) Ask(ctx context.Context, content string, att *domain.Attachments) error {
	res := a.dispatcher.Send(ctx, content, att, a.store.ActiveID())
	switch res.Status {
	case dispatch.StatusSkipped:
	case dispatch.StatusBusy:
		a.printf("%s\n", warningStyle.Render("Still waiting for the previous answer."))
	case dispatch.StatusTabGone:
		return res.Err
	case dispatch.StatusFailed:
		// the notifier already printed the failure
	case dispatch.StatusSucceeded:
		a.printMessage(*res.Reply)
	}
	return nil
}

// Attach sends a PDF or image with an optional question. Text and CSV files
// become a dashboard chat for the active tab's subject instead.
func (a *App) Attach(ctx context.Context, path, question string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}
	if info.Size() > maxAttachBytes {
		return fmt.Errorf("attachment too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	mimeType := mime.TypeByExtension(ext)
	switch {
	case ext == ".pdf":
		return a.Ask(ctx, question, &domain.Attachments{PDF: dataURL("application/pdf", data)})
	case strings.HasPrefix(mimeType, "image/"):
		return a.Ask(ctx, question, &domain.Attachments{Image: dataURL(mimeType, data)})
	case ext == ".csv" || ext == ".txt" || ext == ".md":
		tab, ok := a.store.Active()
		if !ok {
			return errNoActive
		}
		_, err := a.AddChat(ctx, tab.EducationLevel, tab.Subject, filepath.Base(path), data)
		return err
	default:
		return fmt.Errorf("unsupported attachment: %s", filepath.Base(path))
	}
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (a *App) ListChats(ctx context.Context) {
	chats := a.dashboard.List(ctx, a.userID)
	if len(chats) == 0 {
		a.printf("No saved chats.\n")
		return
	}
	a.printf("Saved chats (%d/%d):\n\n", len(chats), a.dashboard.MaxChats())
	for _, c := range chats {
		extra := ""
		if c.UploadedContent != "" {
			extra = " [material]"
		}
		a.printf("- %s%s\n", c.Name, extra)
		a.printf("  %s\n", infoStyle.Render(shortID(c.ID)+"  "+c.LastUpdated.Local().Format(time.DateTime)))
	}
}

// AddChat saves a dashboard chat. When filename is set, data is parsed as
// uploaded study material.
func (a *App) AddChat(ctx context.Context, level domain.EducationLevel, subject, filename string, data []byte) (domain.ChatSummary, error) {
	uploaded := ""
	if filename != "" {
		var err error
		uploaded, err = session.ParseUpload(filename, data)
		if err != nil {
			return domain.ChatSummary{}, err
		}
	}
	s, err := a.dashboard.Add(ctx, a.userID, level, subject, uploaded)
	if err != nil {
		return domain.ChatSummary{}, err
	}
	a.printf("Saved chat %s (%s).\n", s.Name, shortID(s.ID))
	return s, nil
}

func (a *App) resolveChat(ctx context.Context, ref string) (domain.ChatSummary, error) {
	var match *domain.ChatSummary
	for _, c := range a.dashboard.List(ctx, a.userID) {
		if c.ID == ref {
			return c, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			if match != nil {
				return domain.ChatSummary{}, fmt.Errorf("ambiguous chat id: %s", ref)
			}
			match = &c
		}
	}
	if match == nil {
		return domain.ChatSummary{}, fmt.Errorf("%w: %s", domain.ErrSummaryNotFound, ref)
	}
	return *match, nil
}

func (a *App) RemoveChat(ctx context.Context, ref string) error {
	c, err := a.resolveChat(ctx, ref)
	if err != nil {
		return err
	}
	if err := a.dashboard.Remove(ctx, a.userID, c.ID); err != nil {
		return err
	}
	a.printf("Removed %s.\n", c.Name)
	return nil
}

func (a *App) OpenChat(ctx context.Context, ref string) error {
	c, err := a.resolveChat(ctx, ref)
	if err != nil {
		return err
	}
	tab, inserted, err := a.dashboard.Open(ctx, a.userID, c.ID, a.store)
	if err != nil {
		return err
	}
	verb := "Switched to"
	if inserted {
		verb = "Opened"
	}
	a.printf("%s %s.\n", verb, activeStyle.Render(tab.Title))
	return nil
}

func (a *App) activeOr(ref string) (domain.Tab, error) {
	if ref != "" {
		return a.resolveTab(ref)
	}
	tab, ok := a.store.Active()
	if !ok {
		return domain.Tab{}, errNoActive
	}
	return tab, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
