package provider

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

// Ollama runs completions against a local model. Selectable model ids are
// ignored; the configured model answers everything.
type Ollama struct {
	llm   llms.Model
	model string
}

func NewOllama(host, model string) (*Ollama, error) {
	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}
	return &Ollama{llm: llm, model: model}, nil
}

func (o *Ollama) Name() string { return config.ProviderOllama }

func (o *Ollama) Generate(ctx context.Context, r Request) (*Generation, error) {
	messages := make([]llms.MessageContent, 0, len(r.History)+2)
	if r.System != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, r.System))
	}
	for _, t := range r.History {
		role := schema.ChatMessageTypeHuman
		if t.Role == domain.RoleModel {
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, t.Text))
	}

	parts := make([]llms.ContentPart, 0, len(r.Media)+1)
	for _, m := range r.Media {
		data, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return nil, fmt.Errorf("decode attachment: %w", err)
		}
		parts = append(parts, llms.BinaryPart(m.MimeType, data))
	}
	parts = append(parts, llms.TextContent{Text: r.Prompt})
	messages = append(messages, llms.MessageContent{Role: schema.ChatMessageTypeHuman, Parts: parts})

	var opts []llms.CallOption
	if r.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*r.Temperature))
	}

	resp, err := o.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices")
	}

	choice := resp.Choices[0]
	return &Generation{
		Text: choice.Content,
		Usage: Usage{
			PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
			CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		},
	}, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
