package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"

	"github.com/set-night/tutorme/internal/config"
)

// AlertHandler forwards ERROR records to a Telegram log chat. It is meant to
// be one branch of a slog-multi fanout.
type AlertHandler struct {
	sender  Sender
	chatID  int64
	topicID int
	attrs   []slog.Attr
	groups  []string
}

func NewAlertHandler(s Sender, chatID int64, topicID int) *AlertHandler {
	return &AlertHandler{sender: s, chatID: chatID, topicID: topicID}
}

func (h *AlertHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.chatID != 0 && level >= slog.LevelError
}

func (h *AlertHandler) Handle(_ context.Context, r slog.Record) error {
	text := h.format(r)
	if len([]rune(text)) > config.MaxTelegramMessageLen {
		text = string([]rune(text)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	// the record's context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          h.chatID,
		Text:            text,
		ParseMode:       "HTML",
		MessageThreadID: h.topicID,
	})
	if err != nil {
		// logged below ERROR so it does not loop back here
		slog.Warn("failed to send telegram alert", "error", err)
	}
	return nil
}

func (h *AlertHandler) format(r slog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ <b>%s</b>\n\n%s\n", r.Level, html.EscapeString(r.Message))

	write := func(a slog.Attr) {
		fmt.Fprintf(&b, "\n<b>%s:</b> <code>%s</code>", html.EscapeString(a.Key), html.EscapeString(a.Value.Resolve().String()))
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "stack" {
			write(h.qualify(a))
		}
		return true
	})

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	fmt.Fprintf(&b, "\n<b>Time:</b> %s", t.Format("2006-01-02 15:04:05"))
	return b.String()
}

// qualify prefixes the attribute key with the open groups.
func (h *AlertHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}

func (h *AlertHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return &c
}

func (h *AlertHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}
