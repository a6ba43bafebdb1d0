package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	tg "github.com/set-night/tutorme/internal/telegram"
)

// Register wires every command and callback handler into the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/tabs", bot.MatchTypePrefix, h.handleTabs)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleNew)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/rename", bot.MatchTypePrefix, h.handleRename)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/model", bot.MatchTypePrefix, h.handleModel)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/dashboard", bot.MatchTypePrefix, h.handleDashboard)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, h.handleHistory)

	// Tab callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbSwitch, bot.MatchTypePrefix, h.handleSwitchTab)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbDelete, bot.MatchTypePrefix, h.handleDeleteTab)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbNew, bot.MatchTypeExact, h.handleNewTabCallback)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbTabsPage, bot.MatchTypePrefix, h.handleTabsPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbLevel, bot.MatchTypePrefix, h.handleLevelSelect)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbSubject, bot.MatchTypePrefix, h.handleSubjectSelect)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbNoop, bot.MatchTypeExact, h.handleNoop)

	// Model callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbModel, bot.MatchTypePrefix, h.handleModelSelect)

	// Dashboard callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbDashOpen, bot.MatchTypePrefix, h.handleDashboardOpen)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbDashDel, bot.MatchTypePrefix, h.handleDashboardRemove)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CbDashAdd, bot.MatchTypeExact, h.handleDashboardAdd)
}

// HandleDefault routes updates no registered handler matched: plain text,
// photos and documents.
func (h *Handler) HandleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	switch {
	case msg.Document != nil:
		h.handleDocument(ctx, b, update)
	case len(msg.Photo) > 0:
		h.handlePhoto(ctx, b, update)
	case msg.Text != "" && !strings.HasPrefix(msg.Text, "/"):
		h.handleText(ctx, b, update)
	}
}

func (h *Handler) handleNoop(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		h.answer(ctx, update.CallbackQuery, "")
	}
}
