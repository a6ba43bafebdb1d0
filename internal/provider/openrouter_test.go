package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/tutorme/internal/domain"
)

type recordedChat struct {
	Model       string            `json:"model"`
	Temperature *float64          `json:"temperature"`
	Messages    []json.RawMessage `json:"messages"`
}

func fakeOpenRouter(t *testing.T, chat func(w http.ResponseWriter, got recordedChat), modelsHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var got recordedChat
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		chat(w, got)
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if modelsHits != nil {
			modelsHits.Add(1)
		}
		w.Write([]byte(`{"data":[
			{"id":"google/gemini-pro-1.5","name":"Gemini Pro 1.5","pricing":{"prompt":"0.00000125","completion":"0.000005"},"context_length":2000000,"architecture":{"modality":"text+image->text"}},
			{"id":"meta/llama","name":"Llama","pricing":{"prompt":"0","completion":"0"},"context_length":8192,"top_provider":{"context_length":4096}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenRouter_GenerateText(t *testing.T) {
	var captured recordedChat
	srv := fakeOpenRouter(t, func(w http.ResponseWriter, got recordedChat) {
		captured = got
		w.Write([]byte(`{"choices":[{"message":{"content":"Try drawing a model."}}],"usage":{"prompt_tokens":100,"completion_tokens":20,"cost":0.0003}}`))
	}, nil)

	temp := 0.7
	p := NewOpenRouter("test-key", srv.URL)
	gen, err := p.Generate(context.Background(), Request{
		Model:  "gemini-1.5-pro",
		System: "You are a tutor.",
		History: []Turn{
			{Role: domain.RoleUser, Text: "hi"},
			{Role: domain.RoleModel, Text: "hello"},
		},
		Prompt:      "What is a ratio?",
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "Try drawing a model.", gen.Text)
	assert.Equal(t, 100, gen.Usage.PromptTokens)
	assert.True(t, gen.Usage.Cost.Equal(decimal.RequireFromString("0.0003")))

	assert.Equal(t, "google/gemini-pro-1.5", captured.Model)
	assert.Nil(t, captured.Temperature, "gemini models do not take a temperature")
	require.Len(t, captured.Messages, 4)
	assert.JSONEq(t, `{"role":"system","content":"You are a tutor."}`, string(captured.Messages[0]))
	assert.JSONEq(t, `{"role":"assistant","content":"hello"}`, string(captured.Messages[2]))
	assert.JSONEq(t, `{"role":"user","content":"What is a ratio?"}`, string(captured.Messages[3]))
}

func TestOpenRouter_GenerateWithMedia(t *testing.T) {
	var captured recordedChat
	srv := fakeOpenRouter(t, func(w http.ResponseWriter, got recordedChat) {
		captured = got
		w.Write([]byte(`{"choices":[{"message":{"content":"A right-angled triangle."}}]}`))
	}, nil)

	p := NewOpenRouter("test-key", srv.URL)
	_, err := p.Generate(context.Background(), Request{
		Model:  "other/model",
		Prompt: "Analyze this",
		Media: []Media{
			{MimeType: "image/jpeg", Data: "aW1n"},
			{MimeType: "application/pdf", Data: "cGRm"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "other/model", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.JSONEq(t, `{"role":"user","content":[
		{"type":"text","text":"Analyze this"},
		{"type":"image_url","image_url":{"url":"data:image/jpeg;base64,aW1n"}},
		{"type":"file","file":{"filename":"attachment-2.pdf","file_data":"data:application/pdf;base64,cGRm"}}
	]}`, string(captured.Messages[0]))
}

func TestOpenRouter_CostFallsBackToPricing(t *testing.T) {
	srv := fakeOpenRouter(t, func(w http.ResponseWriter, _ recordedChat) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":1000000,"completion_tokens":1000000}}`))
	}, nil)

	gen, err := NewOpenRouter("test-key", srv.URL).Generate(context.Background(), Request{Model: "gemini-1.5-pro", Prompt: "x"})
	require.NoError(t, err)
	cost, _ := gen.Usage.Cost.Float64()
	assert.InDelta(t, 6.25, cost, 1e-6)
}

func TestOpenRouter_ErrorStatus(t *testing.T) {
	srv := fakeOpenRouter(t, func(w http.ResponseWriter, _ recordedChat) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}, nil)

	_, err := NewOpenRouter("test-key", srv.URL).Generate(context.Background(), Request{Model: "gemini-1.5-pro", Prompt: "x"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, se.Body, "slow down")
}

func TestOpenRouter_ListModelsIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := fakeOpenRouter(t, nil, &hits)
	p := NewOpenRouter("test-key", srv.URL)

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.InDelta(t, 1.25, models[0].PromptPrice, 1e-9)
	assert.True(t, models[0].Capabilities.Vision)
	assert.Equal(t, 4096, models[1].ContextLength)
	assert.True(t, models[1].IsFree())

	_, err = p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	m, err := p.GetModel(context.Background(), "meta/llama")
	require.NoError(t, err)
	assert.Equal(t, "Llama", m.Name)
	_, err = p.GetModel(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestModelsCache_Expires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewModelsCache(time.Hour)
	c.now = func() time.Time { return now }

	assert.Nil(t, c.Get())
	c.Set([]domain.AIModel{{ID: "a"}})
	assert.Len(t, c.Get(), 1)

	now = now.Add(2 * time.Hour)
	assert.Nil(t, c.Get())
}

func TestCalculateCost(t *testing.T) {
	got, _ := CalculateCost(500_000, 250_000, 2, 8).Float64()
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", ResolveModel("gemini-2.0-flash-exp"))
	assert.Equal(t, "anthropic/claude-3", ResolveModel("anthropic/claude-3"))
}
