// Package completion defines the request/response contract between a chat
// front end and the completion server, plus an HTTP client for it.
package completion

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/set-night/tutorme/internal/domain"
)

type Request struct {
	Messages       []domain.Message      `json:"messages"`
	Model          string                `json:"model,omitempty"`
	EducationLevel domain.EducationLevel `json:"educationLevel"`
	Subject        string                `json:"subject"`
	TabID          string                `json:"tabId,omitempty"`
	ConversationID *int64                `json:"conversationId,omitempty"`
	Feedback       *Feedback             `json:"feedback,omitempty"`
}

// Feedback asks the server to respond to a student's rating of an answer
// instead of continuing the conversation.
type Feedback struct {
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

type Response struct {
	Text             string `json:"text,omitempty"`
	TabID            string `json:"tabId,omitempty"`
	FeedbackResponse string `json:"feedbackResponse,omitempty"`
	Usage            *Usage `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int             `json:"promptTokens"`
	CompletionTokens int             `json:"completionTokens"`
	Cost             decimal.Decimal `json:"cost"`
}

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Message      string              `json:"message"`
	Error        string              `json:"error,omitempty"`
	ValidOptions map[string][]string `json:"validOptions,omitempty"`
}

// StatusError is returned by Client for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion failed (%d): %s", e.Code, e.Message)
}
