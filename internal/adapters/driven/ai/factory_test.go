package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantNil  bool
		wantErr  bool
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{
			name:     "anthropic is not an embedding provider",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name:     "openai provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
		},
		{
			name: "azure provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAzure,
				APIKey:   "k",
				BaseURL:  "https://example.openai.azure.com",
				Model:    "embed",
			},
		},
		{
			name:     "azure without endpoint fails",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAzure, APIKey: "k"},
			wantNil:  true,
			wantErr:  true,
		},
		{
			name:     "gemini provider creates service",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
		},
		{
			name:     "local provider needs a model directory",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderLocal},
			wantNil:  true,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantErr   bool
		wantModel string
	}{
		{name: "nil settings returns nil", settings: nil, wantNil: true},
		{name: "unconfigured settings returns nil", settings: &domain.LLMSettings{}, wantNil: true},
		{
			name:     "cloud provider without key is not configured",
			settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI},
			wantNil:  true,
		},
		{
			name:      "ollama",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			wantModel: "llama3.2",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name: "azure",
			settings: &domain.LLMSettings{
				Provider: domain.AIProviderAzure,
				APIKey:   "k",
				BaseURL:  "https://example.openai.azure.com",
				Model:    "gpt-4o-prod",
			},
			wantModel: "gpt-4o-prod",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:      "gemini",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantModel: "gemini-2.5-flash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateAndValidateLLMService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})
	require.NoError(t, err)
	require.NotNil(t, svc)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	svc, err = CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  down.URL,
	})
	require.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Nil(t, svc)
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  down.URL,
	})

	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Nil(t, svc)
}

func TestCreateAndValidate_Unconfigured(t *testing.T) {
	llm, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{})
	require.NoError(t, err)
	assert.Nil(t, llm)

	embed, err := CreateAndValidateEmbeddingService(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embed)
}

func TestCreateOllamaEmbedding_Dimensions(t *testing.T) {
	known := createOllamaEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "mxbai-embed-large"})
	assert.Equal(t, domain.EmbeddingDimensions()["mxbai-embed-large"], known.Dimensions())

	unknown := createOllamaEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "mystery"})
	assert.Equal(t, 768, unknown.Dimensions())

	explicit := createOllamaEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Dimensions: 42})
	assert.Equal(t, 42, explicit.Dimensions())
}
