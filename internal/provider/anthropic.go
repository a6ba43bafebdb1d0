package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

const anthropicMaxTokens = 2048

// Anthropic serves every selectable model with one Claude model.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropic(apiKey, model string, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}
}

func (a *Anthropic) Name() string { return config.ProviderAnthropic }

func (a *Anthropic) Generate(ctx context.Context, r Request) (*Generation, error) {
	messages := make([]anthropic.MessageParam, 0, len(r.History)+1)
	for _, t := range r.History {
		if t.Role == domain.RoleModel {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
		}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(r.Media)+1)
	for _, m := range r.Media {
		if strings.HasPrefix(m.MimeType, "image/") {
			blocks = append(blocks, anthropic.NewImageBlockBase64(m.MimeType, m.Data))
		} else {
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: m.Data}))
		}
	}
	blocks = append(blocks, anthropic.NewTextBlock(r.Prompt))
	messages = append(messages, anthropic.NewUserMessage(blocks...))

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
	}
	if r.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.System}}
	}
	if r.Temperature != nil {
		params.Temperature = anthropic.Float(*r.Temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Provider: a.Name(), Code: apiErr.StatusCode, Body: apiErr.Error()}
		}
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	return &Generation{
		Text: text.String(),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}
