package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	require.Error(t, err)

	_, err = NewLLMService(LLMConfig{APIKey: "k", Azure: true})
	require.Error(t, err)
}

func TestGenerate_SendsSystemPromptAndZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"CAVCO_SPECIFIC"}}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o"})
	require.NoError(t, err)

	reply, err := svc.Generate(context.Background(), "classify this", driven.GenerateOptions{
		SystemPrompt: "You classify.",
		MaxTokens:    20,
	})

	require.NoError(t, err)
	assert.Equal(t, "CAVCO_SPECIFIC", reply)
	assert.Equal(t, "gpt-4o", got["model"])
	assert.InDelta(t, 0.0, got["temperature"], 1e-9)
	assert.InDelta(t, 20.0, got["max_tokens"], 1e-9)

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "You classify.", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestChat_Azure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt-4o-prod/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-10-21", r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "azure-key", BaseURL: srv.URL + "/", Model: "gpt-4o-prod", Azure: true})
	require.NoError(t, err)

	reply, err := svc.Chat(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}}, driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`},
		{"status", http.StatusBadGateway, `{}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"not json", http.StatusInternalServerError, `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = svc.Generate(context.Background(), "q", driven.GenerateOptions{})
			require.Error(t, err)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}
