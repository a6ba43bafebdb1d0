// Package dispatch sends student messages to the completion boundary and
// records the outcome in the session store.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/session"
)

// Completer produces a model reply for a conversation.
// completion.Client and tutor.Service implement it.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (*completion.Response, error)
}

// Notification is a transient message for the student, raised when a send
// fails.
type Notification struct {
	TabID string
	Title string
	Err   error
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

type Status int

const (
	// StatusSkipped: blank content and no attachment. Nothing changed.
	StatusSkipped Status = iota
	// StatusBusy: another send was in flight. Nothing changed.
	StatusBusy
	// StatusTabGone: the target tab did not exist. Nothing changed.
	StatusTabGone
	// StatusSucceeded: user message and model reply were appended.
	StatusSucceeded
	// StatusFailed: the user message was appended, the completion failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusBusy:
		return "busy"
	case StatusTabGone:
		return "tab_gone"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the settled outcome of a send.
type Result struct {
	Status Status
	TabID  string
	User   *domain.Message
	Reply  *domain.Message
	Usage  *completion.Usage
	Err    error
}

// Settled reports whether the send reached the completion boundary.
func (r Result) Settled() bool {
	return r.Status == StatusSucceeded || r.Status == StatusFailed
}

// Dispatcher runs at most one send at a time for a store.
type Dispatcher struct {
	store     *session.Store
	completer Completer
	notifier  Notifier
	loading   atomic.Bool
}

func New(store *session.Store, completer Completer, notifier Notifier) *Dispatcher {
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Notification) {})
	}
	return &Dispatcher{store: store, completer: completer, notifier: notifier}
}

// Loading reports whether a send is in flight.
func (d *Dispatcher) Loading() bool {
	return d.loading.Load()
}

// Send appends the student's message to the target tab, asks for a
// completion and appends the reply to the same tab. Blank sends without an
// attachment are ignored; a send while another is in flight is rejected.
func (d *Dispatcher) Send(ctx context.Context, content string, att *domain.Attachments, tabID string) Result {
	if strings.TrimSpace(content) == "" && att.Empty() {
		return Result{Status: StatusSkipped, TabID: tabID}
	}
	if !d.loading.CompareAndSwap(false, true) {
		return Result{Status: StatusBusy, TabID: tabID}
	}
	defer d.loading.Store(false)

	if _, ok := d.store.Tab(tabID); !ok {
		return Result{Status: StatusTabGone, TabID: tabID, Err: domain.ErrTabNotFound}
	}

	msg := domain.Message{Role: domain.RoleUser, Content: content, TabID: tabID}
	if att != nil {
		msg.Image = att.Image
		msg.PDF = att.PDF
	}

	tab, err := d.store.AppendMessage(tabID, msg)
	if err != nil {
		return Result{Status: StatusTabGone, TabID: tabID, Err: err}
	}
	user := msg

	resp, err := d.completer.Complete(ctx, completion.Request{
		Messages:       tab.Messages,
		Model:          tab.Model,
		EducationLevel: tab.EducationLevel,
		Subject:        tab.Subject,
		TabID:          tabID,
	})
	if err == nil && resp == nil {
		err = errors.New("empty completion response")
	}
	if err != nil {
		slog.Error("completion failed", "error", err, "tab_id", tabID, "model", tab.Model)
		d.notifier.Notify(ctx, Notification{TabID: tabID, Title: config.ErrorNotification, Err: err})
		return Result{Status: StatusFailed, TabID: tabID, User: &user, Err: err}
	}

	reply := domain.Message{Role: domain.RoleModel, Content: resp.Text, TabID: tabID}
	if _, err := d.store.AppendMessage(tabID, reply); err != nil {
		// tab was deleted while waiting; the reply has nowhere to go
		slog.Warn("dropping reply for deleted tab", "tab_id", tabID)
		return Result{Status: StatusFailed, TabID: tabID, User: &user, Err: err}
	}

	return Result{Status: StatusSucceeded, TabID: tabID, User: &user, Reply: &reply, Usage: resp.Usage}
}

// Pending is a send that has not settled yet.
type Pending struct {
	done   chan struct{}
	result Result
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the send settles or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// SendAsync runs Send in the background so the caller can keep using other
// tabs while the completion is in flight.
func (d *Dispatcher) SendAsync(ctx context.Context, content string, att *domain.Attachments, tabID string) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.result = d.Send(ctx, content, att, tabID)
	}()
	return p
}
