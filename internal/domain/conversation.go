package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Conversation is a server-stored conversation record.
type Conversation struct {
	ID        int64           `json:"id"`
	TotalCost decimal.Decimal `json:"totalCost"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ConversationMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
