package handler

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/domain"
	tg "github.com/set-night/tutorme/internal/telegram"
)

const historyLimit = 10

func (h *Handler) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	store := h.store(ctx, chatID)
	active, _ := store.Active()

	text := fmt.Sprintf(
		"👋 <b>Welcome to TutorMe!</b>\n\n"+
			"I help Singapore PSLE and O-Level students with their subjects. "+
			"Ask a question, send a photo of a problem or a PDF of your notes.\n\n"+
			"📑 Active tab: <b>%s</b>\n\n"+
			"📋 <b>Commands:</b>\n"+
			"/tabs — Switch between tabs\n"+
			"/new — Open a tab for another level or subject\n"+
			"/rename — Rename the active tab\n"+
			"/model — Choose the AI model\n"+
			"/dashboard — Saved chats\n"+
			"/history — Recent messages of the active tab",
		html.EscapeString(active.Title),
	)
	h.reply(ctx, chatID, text, nil)
}

func (h *Handler) handleHistory(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	active, ok := h.store(ctx, chatID).Active()
	if !ok {
		return
	}

	visible := active.Visible()
	if len(visible) > historyLimit {
		visible = visible[len(visible)-historyLimit:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 <b>%s</b>\n", html.EscapeString(active.Title))
	for _, m := range visible {
		sb.WriteString("\n")
		sb.WriteString(historyLine(m))
		sb.WriteString("\n")
	}
	h.reply(ctx, chatID, sb.String(), nil)
}

func historyLine(m domain.Message) string {
	switch m.Role {
	case domain.RoleUser:
		text := html.EscapeString(m.Content)
		switch {
		case m.Image != "":
			text = "🖼 " + text
		case m.PDF != "":
			text = "📄 " + text
		}
		return "🧑 " + strings.TrimSpace(text)
	default:
		return "🎓 " + tg.RenderHTML(m.Content)
	}
}
