package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/format"
	"github.com/set-night/tutorme/internal/provider"
)

// ConversationRecorder stores exchanges of server-side conversations.
// repository.ConversationRepo implements it.
type ConversationRecorder interface {
	AddMessage(ctx context.Context, conversationID int64, role domain.Role, content string) (*domain.ConversationMessage, error)
	AddCost(ctx context.Context, conversationID int64, cost decimal.Decimal) error
}

// ValidationError is a request the service refuses to send upstream.
type ValidationError struct {
	Err          error
	ValidOptions map[string][]string
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Service answers completion requests with curriculum-aware prompts.
type Service struct {
	provider      provider.Provider
	curriculum    *Curriculum
	conversations ConversationRecorder
}

func NewService(p provider.Provider, conversations ConversationRecorder) *Service {
	return &Service{
		provider:      p,
		curriculum:    Default(),
		conversations: conversations,
	}
}

func (s *Service) Curriculum() *Curriculum {
	return s.curriculum
}

// Complete validates the request, asks the provider for an answer and wraps
// it in the tutoring layout.
func (s *Service) Complete(ctx context.Context, req completion.Request) (*completion.Response, error) {
	model := req.Model
	if _, ok := domain.FindModel(model); !ok {
		model = config.DefaultModel
	}

	if req.Feedback != nil {
		return s.feedback(ctx, model, req)
	}

	if len(req.Messages) == 0 {
		return nil, &ValidationError{Err: domain.ErrEmptyHistory}
	}
	if req.EducationLevel == "" || req.Subject == "" {
		return nil, &ValidationError{Err: domain.ErrMissingContext}
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Content == "" && !last.HasAttachment() {
		return nil, &ValidationError{Err: domain.ErrEmptyMessage}
	}

	systemPrompt, err := s.curriculum.SystemPrompt(req.EducationLevel, req.Subject)
	if err != nil {
		return nil, &ValidationError{Err: err, ValidOptions: s.curriculum.ValidOptions()}
	}

	gen, err := s.provider.Generate(ctx, buildRequest(model, systemPrompt, req))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	resp := &completion.Response{
		Text:  format.SafeResponse(gen.Text, string(req.EducationLevel), req.Subject),
		TabID: req.TabID,
		Usage: &completion.Usage{
			PromptTokens:     gen.Usage.PromptTokens,
			CompletionTokens: gen.Usage.CompletionTokens,
			Cost:             gen.Usage.Cost,
		},
	}

	if req.ConversationID != nil && s.conversations != nil {
		s.record(ctx, *req.ConversationID, last, resp)
	}
	return resp, nil
}

func buildRequest(model, systemPrompt string, req completion.Request) provider.Request {
	level, subject := req.EducationLevel, req.Subject
	last := req.Messages[len(req.Messages)-1]

	switch {
	case last.Image != "":
		mime, data := splitDataURL(last.Image, "image/jpeg")
		content := last.Content
		if content == "" {
			content = "Please analyze this content."
		}
		return provider.Request{
			Model:  model,
			System: systemPrompt,
			Prompt: fmt.Sprintf("Analyze this %s %s question following the format guidelines: %s", level, subject, content),
			Media:  []provider.Media{{MimeType: mime, Data: data}},
		}
	case last.PDF != "":
		_, data := splitDataURL(last.PDF, "application/pdf")
		content := last.Content
		if content == "" {
			content = "Please analyze the main concepts and provide a detailed explanation."
		}
		return provider.Request{
			Model:  model,
			System: systemPrompt,
			Prompt: fmt.Sprintf("Analyze this %s %s document following the format guidelines. Focus on: %s", level, subject, content),
			Media:  []provider.Media{{MimeType: "application/pdf", Data: data}},
		}
	}

	var extra []string
	var history []provider.Turn
	started := false
	for _, m := range req.Messages[:len(req.Messages)-1] {
		switch m.Role {
		case domain.RoleSystem:
			extra = append(extra, m.Content)
			continue
		case domain.RoleUser:
			started = true
		}
		// greetings shown before the student's first message are not sent
		if !started || m.Content == "" {
			continue
		}
		history = append(history, provider.Turn{Role: m.Role, Text: m.Content})
	}

	system := systemPrompt
	if len(extra) > 0 {
		system += "\n\nAdditional context:\n" + strings.Join(extra, "\n\n")
	}

	return provider.Request{
		Model:   model,
		System:  system,
		History: history,
		Prompt:  last.Content,
	}
}

// splitDataURL strips a "data:<mime>;base64," prefix, returning the declared
// mime type or fallback.
func splitDataURL(s, fallback string) (mime, data string) {
	i := strings.IndexByte(s, ',')
	if i < 0 {
		return fallback, s
	}
	header := s[:i]
	mime = fallback
	if strings.HasPrefix(header, "data:") {
		if m, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";"); m != "" {
			mime = m
		}
	}
	return mime, s[i+1:]
}

func (s *Service) record(ctx context.Context, id int64, user domain.Message, resp *completion.Response) {
	content := user.Content
	if content == "" {
		content = "[attachment]"
	}
	if _, err := s.conversations.AddMessage(ctx, id, domain.RoleUser, content); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			slog.Warn("completion for unknown conversation", "conversation_id", id)
			return
		}
		slog.Error("record user message", "error", err, "conversation_id", id)
		return
	}
	if _, err := s.conversations.AddMessage(ctx, id, domain.RoleModel, resp.Text); err != nil {
		slog.Error("record model message", "error", err, "conversation_id", id)
		return
	}
	if resp.Usage != nil && resp.Usage.Cost.IsPositive() {
		if err := s.conversations.AddCost(ctx, id, resp.Usage.Cost); err != nil {
			slog.Error("record conversation cost", "error", err, "conversation_id", id)
		}
	}
}
