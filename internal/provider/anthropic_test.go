package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/tutorme/internal/domain"
)

func TestAnthropic_Generate(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-3-7-sonnet-latest",
			"content":[{"type":"text","text":"Let's look at the diagram."}],
			"stop_reason":"end_turn",
			"usage":{"input_tokens":42,"output_tokens":7}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	gen, err := p.Generate(context.Background(), Request{
		System:  "You are a tutor.",
		History: []Turn{{Role: domain.RoleUser, Text: "hi"}, {Role: domain.RoleModel, Text: "hello"}},
		Prompt:  "Analyze this",
		Media:   []Media{{MimeType: "image/png", Data: "aW1n"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Let's look at the diagram.", gen.Text)
	assert.Equal(t, 42, gen.Usage.PromptTokens)
	assert.Equal(t, 7, gen.Usage.CompletionTokens)

	assert.Equal(t, "claude-3-7-sonnet-latest", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 3)
	last := messages[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	content := last["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]any)["type"])
	assert.Equal(t, "text", content[1].(map[string]any)["type"])

	system := captured["system"].([]any)
	assert.Equal(t, "You are a tutor.", system[0].(map[string]any)["text"])
}

func TestAnthropic_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	p := NewAnthropic("bad", "claude-3-5-haiku-latest", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}
