package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/session"
	tg "github.com/set-night/tutorme/internal/telegram"
)

func (h *Handler) handleDashboard(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	text, keyboard := h.dashboardPage(ctx, msg.Chat.ID, msg.From.ID)
	h.reply(ctx, msg.Chat.ID, text, keyboard)
}

func (h *Handler) dashboardPage(ctx context.Context, chatID, userID int64) (string, *models.InlineKeyboardMarkup) {
	d := h.dashboards(chatID)
	list := d.List(ctx, userID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 <b>Saved chats</b> (%d/%d)\n", len(list), d.MaxChats())
	if len(list) == 0 {
		sb.WriteString("\nNothing saved yet. Save the active tab below, or send a .txt or .csv file to save it with study material.")
	}
	for _, s := range list {
		fmt.Fprintf(&sb, "\n• <b>%s</b> (%s)", html.EscapeString(s.Name), s.LastUpdated.Format("02.01 15:04"))
		if s.UploadedContent != "" {
			sb.WriteString(" 📎")
		}
	}
	return sb.String(), tg.DashboardKeyboard(list, len(list) < d.MaxChats())
}

func (h *Handler) handleDashboardAdd(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, messageID := callbackTarget(cq)
	active, _ := h.store(ctx, chatID).Active()
	if _, err := h.dashboards(chatID).Add(ctx, cq.From.ID, active.EducationLevel, active.Subject, ""); err != nil {
		h.answer(ctx, cq, dashboardError(err))
		return
	}
	h.answer(ctx, cq, "✅ Saved")

	text, keyboard := h.dashboardPage(ctx, chatID, cq.From.ID)
	h.edit(ctx, chatID, messageID, text, keyboard)
}

func (h *Handler) handleDashboardRemove(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, messageID := callbackTarget(cq)
	id := strings.TrimPrefix(cq.Data, tg.CbDashDel)
	if err := h.dashboards(chatID).Remove(ctx, cq.From.ID, id); err != nil {
		h.answer(ctx, cq, dashboardError(err))
	} else {
		h.answer(ctx, cq, "🗑 Removed")
	}

	text, keyboard := h.dashboardPage(ctx, chatID, cq.From.ID)
	h.edit(ctx, chatID, messageID, text, keyboard)
}

func (h *Handler) handleDashboardOpen(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, _ := callbackTarget(cq)
	id := strings.TrimPrefix(cq.Data, tg.CbDashOpen)
	tab, inserted, err := h.dashboards(chatID).Open(ctx, cq.From.ID, id, h.store(ctx, chatID))
	if err != nil {
		h.answer(ctx, cq, dashboardError(err))
		return
	}
	h.answer(ctx, cq, "")

	verb := "Switched to"
	if inserted {
		verb = "Opened"
	}
	h.reply(ctx, chatID, fmt.Sprintf("📂 %s <b>%s</b>.", verb, html.EscapeString(tab.Title)), nil)
}

// saveUpload stores an uploaded study file as a dashboard chat for the
// active tab's level and subject.
func (h *Handler) saveUpload(ctx context.Context, chatID, userID int64, filename string, data []byte) {
	content, err := session.ParseUpload(filename, data)
	if err != nil {
		slog.Warn("parse upload", "error", err, "chat_id", chatID, "file", filename)
		h.reply(ctx, chatID, "❌ Could not read the file: "+html.EscapeString(err.Error()), nil)
		return
	}

	active, _ := h.store(ctx, chatID).Active()
	summary, err := h.dashboards(chatID).Add(ctx, userID, active.EducationLevel, active.Subject, content)
	if err != nil {
		h.reply(ctx, chatID, "❌ "+dashboardError(err), nil)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("📎 Saved <b>%s</b> with your material. Open it from /dashboard.", html.EscapeString(summary.Name)), nil)
}

func dashboardError(err error) string {
	switch {
	case errors.Is(err, domain.ErrMaxChats):
		return "Maximum number of saved chats reached"
	case errors.Is(err, domain.ErrSummaryNotFound):
		return "This chat no longer exists"
	default:
		slog.Error("dashboard operation", "error", err)
		return "An error occurred"
	}
}
