package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/set-night/tutorme/internal/domain"
)

// ConversationRepo persists server-side conversations and their messages.
type ConversationRepo struct {
	db *pgxpool.Pool
}

func NewConversationRepo(db *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = "id, total_cost, created_at, updated_at"

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.TotalCost, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepo) Create(ctx context.Context) (*domain.Conversation, error) {
	c, err := scanConversation(r.db.QueryRow(ctx,
		"INSERT INTO conversations DEFAULT VALUES RETURNING "+conversationColumns))
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	c, err := scanConversation(r.db.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// List returns all conversations, most recently created first.
func (r *ConversationRepo) List(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+conversationColumns+" FROM conversations ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// AddMessage appends a message and bumps the conversation's updated_at.
func (r *ConversationRepo) AddMessage(ctx context.Context, conversationID int64, role domain.Role, content string) (*domain.ConversationMessage, error) {
	var msg *domain.ConversationMessage
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "UPDATE conversations SET updated_at = NOW() WHERE id = $1", conversationID)
		if err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConversationNotFound
		}

		m := domain.ConversationMessage{ConversationID: conversationID, Role: role, Content: content}
		err = tx.QueryRow(ctx, `
			INSERT INTO conversation_messages (conversation_id, role, content)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`,
			conversationID, string(role), content,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		msg = &m
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("add message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages, oldest first.
func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID int64) ([]domain.ConversationMessage, error) {
	var exists bool
	if err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)", conversationID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check conversation: %w", err)
	}
	if !exists {
		return nil, domain.ErrConversationNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ConversationMessage{}
	for rows.Next() {
		var m domain.ConversationMessage
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.Role(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// AddCost adds the cost of one completion to the conversation total.
func (r *ConversationRepo) AddCost(ctx context.Context, conversationID int64, cost decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE conversations SET total_cost = total_cost + $2, updated_at = NOW() WHERE id = $1",
		conversationID, cost)
	if err != nil {
		return fmt.Errorf("add conversation cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}
