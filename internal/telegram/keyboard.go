package telegram

import (
	"fmt"
	"strconv"

	"github.com/go-telegram/bot/models"

	"github.com/set-night/tutorme/internal/domain"
)

// Callback data prefixes.
const (
	CbSwitch   = "switch:"
	CbDelete   = "del:"
	CbNew      = "new"
	CbTabsPage = "tabs:"
	CbLevel    = "lvl:"
	CbSubject  = "subj:"
	CbModel    = "model:"
	CbDashOpen = "dopen:"
	CbDashDel  = "ddel:"
	CbDashAdd  = "dadd"
	CbNoop     = "cur"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// PaginationRow creates a pagination row with prev/next buttons.
func PaginationRow(currentPage, totalPages int, callbackPrefix string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton

	if currentPage > 0 {
		row = append(row, InlineButton("⬅️", callbackPrefix+strconv.Itoa(currentPage-1)))
	}

	row = append(row, InlineButton(
		fmt.Sprintf("%d/%d", currentPage+1, totalPages),
		CbNoop,
	))

	if currentPage < totalPages-1 {
		row = append(row, InlineButton("➡️", callbackPrefix+strconv.Itoa(currentPage+1)))
	}

	return row
}

// TabsKeyboard lists one page of tabs with switch and delete buttons.
func TabsKeyboard(tabs []domain.Tab, activeID string, page, perPage int) *models.InlineKeyboardMarkup {
	if perPage < 1 {
		perPage = len(tabs)
	}
	totalPages := (len(tabs) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	page = max(0, min(page, totalPages-1))

	var rows [][]models.InlineKeyboardButton
	start := page * perPage
	end := min(start+perPage, len(tabs))
	for _, t := range tabs[start:end] {
		label := t.Title
		if t.ID == activeID {
			label = "✅ " + label
		}
		rows = append(rows, ButtonRow(
			InlineButton(label, CbSwitch+t.ID),
			InlineButton("🗑", CbDelete+t.ID),
		))
	}
	if totalPages > 1 {
		rows = append(rows, PaginationRow(page, totalPages, CbTabsPage))
	}
	rows = append(rows, ButtonRow(InlineButton("➕ New tab", CbNew)))
	return InlineKeyboard(rows...)
}

// LevelKeyboard offers the education levels.
func LevelKeyboard() *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(domain.Levels))
	for _, l := range domain.Levels {
		row = append(row, InlineButton(l.Label(), CbLevel+string(l)))
	}
	return InlineKeyboard(row)
}

// SubjectKeyboard offers the subjects of a level. Buttons carry the subject
// index because names can exceed Telegram's callback data limit.
func SubjectKeyboard(level domain.EducationLevel, subjects []string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(subjects))
	for i, s := range subjects {
		rows = append(rows, ButtonRow(InlineButton(s, fmt.Sprintf("%s%s:%d", CbSubject, level, i))))
	}
	return InlineKeyboard(rows...)
}

// ModelKeyboard offers the selectable models, marking the current one.
func ModelKeyboard(current string) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(domain.Models))
	for _, m := range domain.Models {
		label := m.Name
		if m.ID == current {
			label = "✅ " + label
		}
		rows = append(rows, ButtonRow(InlineButton(label, CbModel+m.ID)))
	}
	return InlineKeyboard(rows...)
}

// DashboardKeyboard lists saved chat summaries with open and remove buttons.
func DashboardKeyboard(summaries []domain.ChatSummary, canAdd bool) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(summaries)+1)
	for _, s := range summaries {
		rows = append(rows, ButtonRow(
			InlineButton("📂 "+s.Name, CbDashOpen+s.ID),
			InlineButton("🗑", CbDashDel+s.ID),
		))
	}
	if canAdd {
		rows = append(rows, ButtonRow(InlineButton("➕ Save current tab", CbDashAdd)))
	}
	return InlineKeyboard(rows...)
}
