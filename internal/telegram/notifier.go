package telegram

import (
	"context"
	"log/slog"

	"github.com/set-night/tutorme/internal/dispatch"
)

// Notifier tells a chat that a send failed.
type Notifier struct {
	sender Sender
	chatID int64
}

func NewNotifier(s Sender, chatID int64) *Notifier {
	return &Notifier{sender: s, chatID: chatID}
}

func (n *Notifier) Notify(ctx context.Context, note dispatch.Notification) {
	text := "⚠️ " + note.Title
	if err := SendText(ctx, n.sender, n.chatID, text, nil); err != nil {
		slog.Warn("send failure notification", "error", err, "chat_id", n.chatID, "tab_id", note.TabID)
	}
}
