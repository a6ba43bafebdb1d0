package config

import "time"

const (
	// Default tab created on first load and when the last tab is deleted
	DefaultLevel   = "PSLE"
	DefaultSubject = "Mathematics"

	// Default model a new tab targets
	DefaultModel = "gemini-1.5-pro"

	// Completion request timeout (transport level)
	RequestTimeout = 90 * time.Second

	// Timeout for a single background write of the tab list
	PersistTimeout = 10 * time.Second

	// Model cache duration
	ModelCacheDuration = 1 * time.Hour

	// Dashboard chat limit
	DefaultMaxChats = 8

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Bot rate limits (messages per minute per chat)
	RateLimitPerMinute = 10

	// Tabs per page in the /tabs keyboard
	TabsPerPage = 6

	// Notification shown when a completion fails
	ErrorNotification = "An error occurred"

	// Default temperature sent to providers that accept one
	DefaultTemperature = 1.0
)

// Persistence keys
const (
	TabsKey          = "chatTabs"
	SummaryKeyPrefix = "user_chats_"
)
