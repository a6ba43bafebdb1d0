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

func (h *Handler) handleModel(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	active, _ := h.store(ctx, chatID).Active()

	text := fmt.Sprintf("🤖 Model for <b>%s</b>:", html.EscapeString(active.Title))
	h.reply(ctx, chatID, text, tg.ModelKeyboard(active.Model))
}

func (h *Handler) handleModelSelect(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	id := strings.TrimPrefix(cq.Data, tg.CbModel)
	m, ok := domain.FindModel(id)
	if !ok {
		h.answer(ctx, cq, "Unknown model")
		return
	}

	chatID, messageID := callbackTarget(cq)
	store := h.store(ctx, chatID)
	store.SetModel(store.ActiveID(), m.ID)
	h.answer(ctx, cq, "✅ "+m.Name)

	active, _ := store.Active()
	text := fmt.Sprintf("🤖 Model for <b>%s</b>:", html.EscapeString(active.Title))
	h.edit(ctx, chatID, messageID, text, tg.ModelKeyboard(active.Model))
}
