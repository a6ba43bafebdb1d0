package handler

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/dispatch"
	"github.com/set-night/tutorme/internal/middleware"
	"github.com/set-night/tutorme/internal/session"
	tg "github.com/set-night/tutorme/internal/telegram"
	"github.com/set-night/tutorme/internal/tutor"
)

// Messenger is the part of the Telegram API the handlers talk to.
// *bot.Bot implements it.
type Messenger interface {
	tg.Sender
	tg.ChatActionSender
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Downloader fetches a Telegram file by id, returning its bytes and path.
type Downloader func(ctx context.Context, fileID string) ([]byte, string, error)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot        *bot.Bot
	msg        Messenger
	download   Downloader
	registry   *session.Registry
	dashboards func(chatID int64) *session.Dashboard
	completer  dispatch.Completer
	curriculum *tutor.Curriculum

	dispatchers sync.Map // chat id -> *dispatch.Dispatcher
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot        *bot.Bot
	Messenger  Messenger
	Download   Downloader
	Registry   *session.Registry
	Dashboards func(chatID int64) *session.Dashboard
	Completer  dispatch.Completer
	Curriculum *tutor.Curriculum
}

// New creates a new Handler from the provided dependencies. Messenger and
// Download default to the bot itself.
func New(deps Deps) *Handler {
	h := &Handler{
		bot:        deps.Bot,
		msg:        deps.Messenger,
		download:   deps.Download,
		registry:   deps.Registry,
		dashboards: deps.Dashboards,
		completer:  deps.Completer,
		curriculum: deps.Curriculum,
	}
	if h.msg == nil {
		h.msg = deps.Bot
	}
	if h.download == nil && deps.Bot != nil {
		h.download = func(ctx context.Context, fileID string) ([]byte, string, error) {
			return tg.DownloadFile(ctx, deps.Bot, fileID)
		}
	}
	if h.curriculum == nil {
		h.curriculum = tutor.Default()
	}
	return h
}

// store returns the chat's store, preferring the one StoreLoader put in ctx.
func (h *Handler) store(ctx context.Context, chatID int64) *session.Store {
	if s := middleware.GetStore(ctx); s != nil {
		return s
	}
	return h.registry.Get(ctx, chatID)
}

func (h *Handler) dispatcher(chatID int64, store *session.Store) *dispatch.Dispatcher {
	if d, ok := h.dispatchers.Load(chatID); ok {
		return d.(*dispatch.Dispatcher)
	}
	d, _ := h.dispatchers.LoadOrStore(chatID, dispatch.New(store, h.completer, tg.NewNotifier(h.msg, chatID)))
	return d.(*dispatch.Dispatcher)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	if err := tg.SendHTML(ctx, h.msg, chatID, text, nil, markup); err != nil {
		slog.Error("send reply", "error", err, "chat_id", chatID)
	}
}

// edit replaces a callback's message, falling back to a new message.
func (h *Handler) edit(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	if messageID != 0 {
		params := &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		}
		if markup != nil {
			params.ReplyMarkup = markup
		}
		if _, err := h.msg.EditMessageText(ctx, params); err == nil {
			return
		}
	}
	h.reply(ctx, chatID, text, markup)
}

func (h *Handler) answer(ctx context.Context, cq *models.CallbackQuery, text string) {
	h.msg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            text,
	})
}

// callbackTarget returns the chat and message a callback query came from.
func callbackTarget(cq *models.CallbackQuery) (int64, int) {
	if msg := cq.Message.Message; msg != nil {
		return msg.Chat.ID, msg.ID
	}
	return 0, 0
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	_, args, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(args)
}
