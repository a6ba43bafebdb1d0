package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
)

// ServerConfig configures the completion server.
type ServerConfig struct {
	Port        int    `env:"PORT" envDefault:"3000"`
	DatabaseURL string `env:"DATABASE_URL"`

	Provider       string `env:"LLM_PROVIDER" envDefault:"openrouter"`
	OpenRouterKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL  string `env:"OPENROUTER_API_URL" envDefault:"https://openrouter.ai/api/v1"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-7-sonnet-latest"`
	OllamaHost     string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OllamaModel    string `env:"OLLAMA_MODEL" envDefault:"llama3.1"`

	// Requests per second allowed per client IP.
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"2"`
	RateBurst int     `env:"RATE_BURST" envDefault:"6"`

	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// BotConfig configures the Telegram front end.
type BotConfig struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Completion server. When empty the bot completes in-process using the
	// provider settings below.
	CompletionURL string `env:"COMPLETION_URL"`

	Provider       string `env:"LLM_PROVIDER" envDefault:"openrouter"`
	OpenRouterKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL  string `env:"OPENROUTER_API_URL" envDefault:"https://openrouter.ai/api/v1"`
	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-7-sonnet-latest"`
	OllamaHost     string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434"`
	OllamaModel    string `env:"OLLAMA_MODEL" envDefault:"llama3.1"`

	MaxChats int `env:"MAX_CHATS" envDefault:"8"`

	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Telegram alerting for ERROR level logs
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`

	LogFile  string `env:"LOG_FILE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
}

// ProviderSettings is the provider subset shared by the server and the bot.
type ProviderSettings struct {
	Provider       string
	OpenRouterKey  string
	OpenRouterURL  string
	AnthropicKey   string
	AnthropicModel string
	OllamaHost     string
	OllamaModel    string
}

func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validateProvider(cfg.Providers()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadBot() (*BotConfig, error) {
	cfg := &BotConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CompletionURL == "" {
		if err := validateProvider(cfg.Providers()); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *ServerConfig) Providers() ProviderSettings {
	return ProviderSettings{
		Provider:       c.Provider,
		OpenRouterKey:  c.OpenRouterKey,
		OpenRouterURL:  c.OpenRouterURL,
		AnthropicKey:   c.AnthropicKey,
		AnthropicModel: c.AnthropicModel,
		OllamaHost:     c.OllamaHost,
		OllamaModel:    c.OllamaModel,
	}
}

func (c *BotConfig) Providers() ProviderSettings {
	return ProviderSettings{
		Provider:       c.Provider,
		OpenRouterKey:  c.OpenRouterKey,
		OpenRouterURL:  c.OpenRouterURL,
		AnthropicKey:   c.AnthropicKey,
		AnthropicModel: c.AnthropicModel,
		OllamaHost:     c.OllamaHost,
		OllamaModel:    c.OllamaModel,
	}
}

func validateProvider(p ProviderSettings) error {
	switch strings.ToLower(p.Provider) {
	case ProviderOpenRouter:
		if p.OpenRouterKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for provider %q", p.Provider)
		}
	case ProviderAnthropic:
		if p.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", p.Provider)
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
	return nil
}

// ParseLogLevel maps LOG_LEVEL values to slog levels, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
