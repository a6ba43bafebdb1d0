// Package provider adapts hosted and local LLM APIs to one generate call.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/set-night/tutorme/internal/config"
	"github.com/set-night/tutorme/internal/domain"
)

// Turn is one prior message of the conversation.
type Turn struct {
	Role domain.Role
	Text string
}

// Media is an inline attachment. Data is base64 without a data-URL prefix.
type Media struct {
	MimeType string
	Data     string
}

type Request struct {
	// Model is a selectable model id (see domain.Models); providers map it to
	// their own identifiers.
	Model       string
	System      string
	History     []Turn
	Prompt      string
	Media       []Media
	Temperature *float64
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	Cost             decimal.Decimal
}

type Generation struct {
	Text  string
	Usage Usage
}

type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Generation, error)
}

// ModelLister is implemented by providers that can report model pricing.
type ModelLister interface {
	ListModels(ctx context.Context) ([]domain.AIModel, error)
}

// StatusError is a non-2xx answer from an upstream API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Code, e.Body)
}

// New builds the provider selected by settings.
func New(s config.ProviderSettings) (Provider, error) {
	switch strings.ToLower(s.Provider) {
	case config.ProviderOpenRouter:
		return NewOpenRouter(s.OpenRouterKey, s.OpenRouterURL), nil
	case config.ProviderAnthropic:
		return NewAnthropic(s.AnthropicKey, s.AnthropicModel), nil
	case config.ProviderOllama:
		return NewOllama(s.OllamaHost, s.OllamaModel)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

// CalculateCost prices a call from per-1M-token rates.
func CalculateCost(promptTokens, completionTokens int, promptPrice, completionPrice float64) decimal.Decimal {
	promptCost := decimal.NewFromFloat(float64(promptTokens) * promptPrice / 1_000_000)
	completionCost := decimal.NewFromFloat(float64(completionTokens) * completionPrice / 1_000_000)
	return promptCost.Add(completionCost)
}
