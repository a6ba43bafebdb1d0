package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"path"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/dispatch"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/session"
	tg "github.com/set-night/tutorme/internal/telegram"
)

const busyText = "⏳ Please wait for the answer to your previous message."

func (h *Handler) handleText(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	h.send(ctx, msg.Chat.ID, msg.ID, msg.Text, nil)
}

func (h *Handler) handlePhoto(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	// the last size is the largest
	photo := msg.Photo[len(msg.Photo)-1]

	data, _, err := h.download(ctx, photo.FileID)
	if err != nil {
		slog.Error("download photo", "error", err, "chat_id", msg.Chat.ID)
		h.reply(ctx, msg.Chat.ID, "❌ Could not download the photo.", nil)
		return
	}
	h.send(ctx, msg.Chat.ID, msg.ID, msg.Caption, &domain.Attachments{Image: tg.DataURL("image/jpeg", data)})
}

func (h *Handler) handleDocument(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	doc := msg.Document
	ext := strings.ToLower(path.Ext(doc.FileName))

	kind := ""
	switch {
	case doc.MimeType == "application/pdf" || ext == ".pdf":
		kind = "pdf"
	case strings.HasPrefix(doc.MimeType, "image/"):
		kind = "image"
	case ext == ".csv" || ext == ".txt" || ext == ".md" || doc.MimeType == "text/csv" || doc.MimeType == "text/plain":
		kind = "upload"
	default:
		h.reply(ctx, msg.Chat.ID, "❌ Unsupported file. Send a photo, a PDF, or a .txt/.csv file.", nil)
		return
	}

	data, _, err := h.download(ctx, doc.FileID)
	if err != nil {
		slog.Error("download document", "error", err, "chat_id", msg.Chat.ID, "file", doc.FileName)
		h.reply(ctx, msg.Chat.ID, "❌ Could not download the file.", nil)
		return
	}

	switch kind {
	case "pdf":
		h.send(ctx, msg.Chat.ID, msg.ID, msg.Caption, &domain.Attachments{PDF: tg.DataURL("application/pdf", data)})
	case "image":
		h.send(ctx, msg.Chat.ID, msg.ID, msg.Caption, &domain.Attachments{Image: tg.DataURL(doc.MimeType, data)})
	case "upload":
		if msg.From == nil {
			return
		}
		h.saveUpload(ctx, msg.Chat.ID, msg.From.ID, doc.FileName, data)
	}
}

// send dispatches a student message to the active tab and delivers the
// reply. The reply is bound to the tab that was active when the message
// arrived, even if the student switches tabs while waiting.
func (h *Handler) send(ctx context.Context, chatID int64, replyTo int, content string, att *domain.Attachments) {
	store := h.store(ctx, chatID)
	d := h.dispatcher(chatID, store)
	if d.Loading() {
		h.reply(ctx, chatID, busyText, nil)
		return
	}

	tabID := store.ActiveID()
	stop := tg.StartTyping(ctx, h.msg, chatID)
	res := d.Send(ctx, content, att, tabID)
	stop()

	switch res.Status {
	case dispatch.StatusBusy:
		h.reply(ctx, chatID, busyText, nil)
	case dispatch.StatusTabGone:
		h.reply(ctx, chatID, "❌ This tab no longer exists. Use /tabs to pick another.", nil)
	case dispatch.StatusFailed:
		// the notifier already told the student
		if errors.Is(res.Err, domain.ErrTabNotFound) {
			slog.Info("reply dropped for deleted tab", "chat_id", chatID, "tab_id", res.TabID)
		}
	case dispatch.StatusSucceeded:
		h.deliver(ctx, chatID, replyTo, store, res)
	}
}

func (h *Handler) deliver(ctx context.Context, chatID int64, replyTo int, store *session.Store, res dispatch.Result) {
	text := tg.RenderHTML(res.Reply.Content)
	if store.ActiveID() != res.TabID {
		if tab, ok := store.Tab(res.TabID); ok {
			text = fmt.Sprintf("📑 <b>%s</b>\n\n%s", html.EscapeString(tab.Title), text)
		}
	}

	var reply *int
	if replyTo != 0 {
		reply = &replyTo
	}
	if err := tg.SendHTML(ctx, h.msg, chatID, text, reply, nil); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID, "tab_id", res.TabID)
	}
}
