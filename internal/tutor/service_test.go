package tutor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/domain"
	"github.com/set-night/tutorme/internal/provider"
)

type fakeProvider struct {
	requests []provider.Request
	text     string
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, r provider.Request) (*provider.Generation, error) {
	f.requests = append(f.requests, r)
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Generation{
		Text:  f.text,
		Usage: provider.Usage{PromptTokens: 12, CompletionTokens: 4, Cost: decimal.RequireFromString("0.002")},
	}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	messages []domain.ConversationMessage
	cost     decimal.Decimal
	missing  bool
}

func (f *fakeRecorder) AddMessage(_ context.Context, id int64, role domain.Role, content string) (*domain.ConversationMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return nil, domain.ErrConversationNotFound
	}
	m := domain.ConversationMessage{ID: int64(len(f.messages) + 1), ConversationID: id, Role: role, Content: content}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeRecorder) AddCost(_ context.Context, _ int64, cost decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cost = f.cost.Add(cost)
	return nil
}

func seededHistory(tabID string, extra ...domain.Message) []domain.Message {
	msgs := []domain.Message{
		{Role: domain.RoleSystem, Content: "You are an expert tutor.", TabID: tabID},
		{Role: domain.RoleModel, Content: "Hi there!", TabID: tabID},
	}
	return append(msgs, extra...)
}

func TestComplete_Text(t *testing.T) {
	fp := &fakeProvider{text: "Think about equal parts."}
	svc := NewService(fp, nil)

	resp, err := svc.Complete(context.Background(), completion.Request{
		Messages: seededHistory("t1",
			domain.Message{Role: domain.RoleUser, Content: "What is 1/2?", TabID: "t1"},
			domain.Message{Role: domain.RoleModel, Content: "Half of a whole.", TabID: "t1"},
			domain.Message{Role: domain.RoleUser, Content: "And 1/4?", TabID: "t1"},
		),
		Model:          "gemini-2.0-flash-exp",
		EducationLevel: domain.LevelPSLE,
		Subject:        "Mathematics",
		TabID:          "t1",
	})
	require.NoError(t, err)

	assert.Equal(t, "t1", resp.TabID)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Text))
	require.NoError(t, err)
	assert.Equal(t, "Think about equal parts.", doc.Find("div.main-content p").Text())
	assert.Equal(t, 1, doc.Find("div.verification").Length())

	require.Len(t, fp.requests, 1)
	req := fp.requests[0]
	assert.Equal(t, "gemini-2.0-flash-exp", req.Model)
	assert.Equal(t, "And 1/4?", req.Prompt)
	assert.True(t, strings.HasPrefix(req.System, "You are an experienced Singapore PSLE Mathematics tutor"))
	assert.Contains(t, req.System, "Additional context:\nYou are an expert tutor.")
	assert.Equal(t, []provider.Turn{
		{Role: domain.RoleUser, Text: "What is 1/2?"},
		{Role: domain.RoleModel, Text: "Half of a whole."},
	}, req.History, "greeting before the first question is not sent")
	assert.Empty(t, req.Media)
}

func TestComplete_UnknownModelFallsBack(t *testing.T) {
	fp := &fakeProvider{text: "ok"}
	_, err := NewService(fp, nil).Complete(context.Background(), completion.Request{
		Messages:       []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		Model:          "gpt-9",
		EducationLevel: domain.LevelOLevel,
		Subject:        "Pure Physics",
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", fp.requests[0].Model)
}

func TestComplete_Image(t *testing.T) {
	fp := &fakeProvider{text: "It is an isosceles triangle."}
	_, err := NewService(fp, nil).Complete(context.Background(), completion.Request{
		Messages: seededHistory("t1", domain.Message{
			Role: domain.RoleUser, Image: "data:image/png;base64,aW1hZ2U=", TabID: "t1",
		}),
		EducationLevel: domain.LevelOLevel,
		Subject:        "Elementary Mathematics",
	})
	require.NoError(t, err)

	req := fp.requests[0]
	assert.Equal(t, "Analyze this OLEVEL Elementary Mathematics question following the format guidelines: Please analyze this content.", req.Prompt)
	assert.Equal(t, []provider.Media{{MimeType: "image/png", Data: "aW1hZ2U="}}, req.Media)
	assert.Empty(t, req.History)
}

func TestComplete_PDF(t *testing.T) {
	fp := &fakeProvider{text: "The notes cover forces."}
	_, err := NewService(fp, nil).Complete(context.Background(), completion.Request{
		Messages:       []domain.Message{{Role: domain.RoleUser, Content: "summarise", PDF: "cGRm"}},
		EducationLevel: domain.LevelOLevel,
		Subject:        "Pure Physics",
	})
	require.NoError(t, err)

	req := fp.requests[0]
	assert.Equal(t, "Analyze this OLEVEL Pure Physics document following the format guidelines. Focus on: summarise", req.Prompt)
	assert.Equal(t, []provider.Media{{MimeType: "application/pdf", Data: "cGRm"}}, req.Media)
}

func TestComplete_Validation(t *testing.T) {
	tests := []struct {
		name        string
		req         completion.Request
		wantErr     error
		wantOptions bool
	}{
		{
			name:    "no messages",
			req:     completion.Request{EducationLevel: domain.LevelPSLE, Subject: "Science"},
			wantErr: domain.ErrEmptyHistory,
		},
		{
			name:    "missing subject",
			req:     completion.Request{Messages: []domain.Message{{Role: domain.RoleUser, Content: "x"}}, EducationLevel: domain.LevelPSLE},
			wantErr: domain.ErrMissingContext,
		},
		{
			name:    "empty last message",
			req:     completion.Request{Messages: []domain.Message{{Role: domain.RoleUser}}, EducationLevel: domain.LevelPSLE, Subject: "Science"},
			wantErr: domain.ErrEmptyMessage,
		},
		{
			name:        "unknown subject",
			req:         completion.Request{Messages: []domain.Message{{Role: domain.RoleUser, Content: "x"}}, EducationLevel: domain.LevelPSLE, Subject: "Latin"},
			wantErr:     domain.ErrInvalidSubject,
			wantOptions: true,
		},
		{
			name:        "unknown level",
			req:         completion.Request{Messages: []domain.Message{{Role: domain.RoleUser, Content: "x"}}, EducationLevel: "IB", Subject: "Science"},
			wantErr:     domain.ErrInvalidLevel,
			wantOptions: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{text: "unused"}
			_, err := NewService(fp, nil).Complete(context.Background(), tt.req)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantOptions {
				assert.Len(t, ve.ValidOptions["PSLE"], 4)
			} else {
				assert.Nil(t, ve.ValidOptions)
			}
			assert.Empty(t, fp.requests)
		})
	}
}

func TestComplete_ProviderError(t *testing.T) {
	boom := &provider.StatusError{Provider: "fake", Code: 503, Body: "down"}
	_, err := NewService(&fakeProvider{err: boom}, nil).Complete(context.Background(), completion.Request{
		Messages:       []domain.Message{{Role: domain.RoleUser, Content: "x"}},
		EducationLevel: domain.LevelPSLE,
		Subject:        "Science",
	})
	require.Error(t, err)
	var se *provider.StatusError
	assert.True(t, errors.As(err, &se))
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestComplete_Feedback(t *testing.T) {
	fp := &fakeProvider{text: "Shorten the tips section."}
	resp, err := NewService(fp, nil).Complete(context.Background(), completion.Request{
		Feedback: &completion.Feedback{Type: "negative", Comment: "too long"},
		TabID:    "t9",
	})
	require.NoError(t, err)

	assert.Equal(t, "Shorten the tips section.", resp.FeedbackResponse)
	assert.Empty(t, resp.Text)
	assert.Contains(t, fp.requests[0].Prompt, "Feedback Type: negative\nComment: too long")
}

func TestComplete_RecordsConversation(t *testing.T) {
	rec := &fakeRecorder{}
	id := int64(5)
	resp, err := NewService(&fakeProvider{text: "Newton's first law."}, rec).Complete(context.Background(), completion.Request{
		Messages:       []domain.Message{{Role: domain.RoleUser, Content: "inertia?"}},
		EducationLevel: domain.LevelOLevel,
		Subject:        "Pure Physics",
		ConversationID: &id,
	})
	require.NoError(t, err)

	require.Len(t, rec.messages, 2)
	assert.Equal(t, "inertia?", rec.messages[0].Content)
	assert.Equal(t, domain.RoleModel, rec.messages[1].Role)
	assert.Equal(t, resp.Text, rec.messages[1].Content)
	assert.True(t, rec.cost.Equal(decimal.RequireFromString("0.002")))
}

func TestComplete_UnknownConversationStillAnswers(t *testing.T) {
	rec := &fakeRecorder{missing: true}
	id := int64(404)
	resp, err := NewService(&fakeProvider{text: "ok"}, rec).Complete(context.Background(), completion.Request{
		Messages:       []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		EducationLevel: domain.LevelPSLE,
		Subject:        "English",
		ConversationID: &id,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
	assert.True(t, rec.cost.IsZero())
}

func TestSplitDataURL(t *testing.T) {
	mime, data := splitDataURL("data:image/webp;base64,AAA", "image/jpeg")
	assert.Equal(t, "image/webp", mime)
	assert.Equal(t, "AAA", data)

	mime, data = splitDataURL("AAA", "image/jpeg")
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, "AAA", data)
}
