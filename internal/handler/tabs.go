package handler

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/session"
	tg "github.com/set-night/tutorme/internal/telegram"
)

func (h *Handler) handleTabs(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.sendTabsPage(ctx, chatID, h.store(ctx, chatID), 0, 0)
}

func tabsText(store *session.Store) string {
	tabs := store.Tabs()
	active, _ := store.Active()
	return fmt.Sprintf("📑 <b>Tabs</b> (%d)\n\nActive: <b>%s</b>", len(tabs), html.EscapeString(active.Title))
}

// sendTabsPage shows one page of the tab list, editing messageID when set.
func (h *Handler) sendTabsPage(ctx context.Context, chatID int64, store *session.Store, page, messageID int) {
	keyboard := tg.TabsKeyboard(store.Tabs(), store.ActiveID(), page, config.TabsPerPage)
	if messageID != 0 {
		h.edit(ctx, chatID, messageID, tabsText(store), keyboard)
		return
	}
	h.reply(ctx, chatID, tabsText(store), keyboard)
}

func (h *Handler) handleTabsPage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	h.answer(ctx, cq, "")

	page, _ := strconv.Atoi(strings.TrimPrefix(cq.Data, tg.CbTabsPage))
	chatID, messageID := callbackTarget(cq)
	h.sendTabsPage(ctx, chatID, h.store(ctx, chatID), page, messageID)
}

func (h *Handler) handleSwitchTab(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, messageID := callbackTarget(cq)
	store := h.store(ctx, chatID)
	id := strings.TrimPrefix(cq.Data, tg.CbSwitch)

	if _, ok := store.Tab(id); !ok {
		h.answer(ctx, cq, "This tab no longer exists")
	} else {
		h.answer(ctx, cq, "")
	}
	store.SwitchTab(id)
	h.sendTabsPage(ctx, chatID, store, 0, messageID)
}

func (h *Handler) handleDeleteTab(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	chatID, messageID := callbackTarget(cq)
	store := h.store(ctx, chatID)
	if store.DeleteTab(strings.TrimPrefix(cq.Data, tg.CbDelete)) {
		h.answer(ctx, cq, "🗑 Tab deleted")
	} else {
		h.answer(ctx, cq, "This tab no longer exists")
	}
	h.sendTabsPage(ctx, chatID, store, 0, messageID)
}

func (h *Handler) handleNewTabCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	h.answer(ctx, cq, "")
	chatID, messageID := callbackTarget(cq)
	h.edit(ctx, chatID, messageID, "🎓 Choose the education level:", tg.LevelKeyboard())
}

// handleNew opens a tab. "/new PSLE Science" creates it directly; missing
// arguments are asked for with keyboards.
func (h *Handler) handleNew(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	args := commandArgs(update.Message.Text)

	if args == "" {
		h.reply(ctx, chatID, "🎓 Choose the education level:", tg.LevelKeyboard())
		return
	}

	level, subject, err := h.curriculum.ParseChoice(args)
	if err != nil {
		h.reply(ctx, chatID, "❌ "+html.EscapeString(err.Error())+"\n\nUsage: /new PSLE Mathematics", nil)
		return
	}
	if subject == "" {
		h.reply(ctx, chatID, "📚 Choose the subject:", tg.SubjectKeyboard(level, h.curriculum.Subjects(level)))
		return
	}

	tab := h.store(ctx, chatID).CreateTab(level, subject)
	h.reply(ctx, chatID, newTabText(tab), nil)
}

func newTabText(tab domain.Tab) string {
	return fmt.Sprintf("✅ New tab <b>%s</b> is active. Ask away!", html.EscapeString(tab.Title))
}

func (h *Handler) handleLevelSelect(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	h.answer(ctx, cq, "")

	level := domain.EducationLevel(strings.TrimPrefix(cq.Data, tg.CbLevel))
	chatID, messageID := callbackTarget(cq)
	h.edit(ctx, chatID, messageID, "📚 Choose the subject:", tg.SubjectKeyboard(level, h.curriculum.Subjects(level)))
}

func (h *Handler) handleSubjectSelect(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	// subj:<level>:<index>
	payload := strings.TrimPrefix(cq.Data, tg.CbSubject)
	levelStr, idxStr, _ := strings.Cut(payload, ":")
	level := domain.EducationLevel(levelStr)
	idx, err := strconv.Atoi(idxStr)
	subjects := h.curriculum.Subjects(level)
	if err != nil || idx < 0 || idx >= len(subjects) {
		slog.Warn("bad subject callback", "data", cq.Data)
		h.answer(ctx, cq, "Unknown subject")
		return
	}
	h.answer(ctx, cq, "")

	chatID, messageID := callbackTarget(cq)
	tab := h.store(ctx, chatID).CreateTab(level, subjects[idx])
	h.edit(ctx, chatID, messageID, newTabText(tab), nil)
}

func (h *Handler) handleRename(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	title := commandArgs(update.Message.Text)
	if title == "" {
		h.reply(ctx, chatID, "Usage: /rename <i>new title</i>", nil)
		return
	}

	store := h.store(ctx, chatID)
	if !store.RenameTab(store.ActiveID(), title) {
		h.reply(ctx, chatID, "❌ Could not rename the tab.", nil)
		return
	}
	active, _ := store.Active()
	h.reply(ctx, chatID, fmt.Sprintf("✏️ Tab renamed to <b>%s</b>.", html.EscapeString(active.Title)), nil)
}
