package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func newTestSettings(env map[string]string) (*SettingsService, *mockConfigStore) {
	store := newMockConfigStore()
	svc := NewSettingsService(store, "/data")
	svc.SetEnvLookup(envMap(env))
	return svc, store
}

func TestSettings_Defaults(t *testing.T) {
	svc, _ := newTestSettings(nil)

	s, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "/data/index", s.Index.Path)
	assert.Equal(t, "/data/helpdesk.db", s.StoragePath)
	assert.Equal(t, "/data/models", s.Embedding.ModelDir)
	assert.Equal(t, 5, s.Answer.TopK)
	assert.InDelta(t, 0.65, s.Answer.ConfidenceThreshold, 1e-9)
	assert.Equal(t, domain.DefaultChunkingConfig(), s.Chunking)
	assert.Equal(t, domain.IndexBackendChromem, s.Index.Backend)
}

func TestSettings_ConfigFileOverridesDefaults(t *testing.T) {
	svc, store := newTestSettings(nil)
	store.data["llm.provider"] = "openai"
	store.data["llm.api_key"] = "sk-test"
	store.data["answer.top_k"] = int64(8)
	store.data["answer.confidence_threshold"] = 0.7
	store.data["llm.timeout"] = int64(45)
	store.data["index.skip_create"] = true

	s, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, s.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.Equal(t, 8, s.Answer.TopK)
	assert.InDelta(t, 0.7, s.Answer.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 45*time.Second, s.LLM.Timeout)
	assert.True(t, s.Index.SkipCreate)
}

func TestSettings_EnvironmentOverridesConfigFile(t *testing.T) {
	svc, store := newTestSettings(map[string]string{
		"HELPDESK_ANSWER_TOP_K": "3",
		"CONFIDENCE_THRESHOLD":  "0.5",
		"CHUNK_MAX_TOKENS":      "700",
		"HELPDESK_LLM_TIMEOUT":  "90s",
	})
	store.data["answer.top_k"] = int64(8)

	s, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, 3, s.Answer.TopK)
	assert.InDelta(t, 0.5, s.Answer.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 700, s.Chunking.MaxTokens)
	assert.Equal(t, 90*time.Second, s.LLM.Timeout)
}

func TestSettings_PrefixedNameBeatsAlias(t *testing.T) {
	svc, _ := newTestSettings(map[string]string{
		"HELPDESK_INDEX_SKIP_CREATE":  "false",
		"SKIP_INDEX_CREATE":           "true",
		"INGESTION_SKIP_INDEX_CREATE": "true",
	})

	s, err := svc.Get()

	require.NoError(t, err)
	assert.False(t, s.Index.SkipCreate)
}

func TestSettings_LegacyAzureVariables(t *testing.T) {
	svc, _ := newTestSettings(map[string]string{
		"AZURE_FOUNDRY_ENDPOINT":             "https://example.openai.azure.com",
		"AZURE_FOUNDRY_API_KEY":              "key",
		"AZURE_FOUNDRY_DEPLOYMENT_NAME":      "gpt-4o",
		"AZURE_FOUNDRY_EMBEDDING_DEPLOYMENT": "text-embedding-3-large",
		"HELPDESK_LLM_PROVIDER":              "azure",
		"HELPDESK_EMBEDDING_PROVIDER":        "azure",
	})

	s, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", s.LLM.Model)
	assert.Equal(t, "https://example.openai.azure.com", s.LLM.BaseURL)
	assert.Equal(t, "https://example.openai.azure.com", s.Embedding.BaseURL)
	assert.Equal(t, "key", s.Embedding.APIKey)
	assert.Equal(t, 3072, s.Embedding.Dimensions)
	assert.True(t, s.LLM.IsConfigured())
}

func TestSettings_ExplicitDimensionsWin(t *testing.T) {
	svc, store := newTestSettings(nil)
	store.data["embedding.provider"] = "openai"
	store.data["embedding.model"] = "text-embedding-3-large"
	store.data["embedding.dimensions"] = int64(256)

	s, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, 256, s.Embedding.Dimensions)
}

func TestSettings_InvalidValuesReported(t *testing.T) {
	svc, store := newTestSettings(map[string]string{"RAG_TOP_K": "many"})
	store.data["answer.confidence_threshold"] = true

	s, err := svc.Get()

	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "HELPDESK_ANSWER_TOP_K")
	assert.Contains(t, err.Error(), "answer.confidence_threshold")
	require.NotNil(t, s)
	assert.Equal(t, 5, s.Answer.TopK)
}

func TestSettings_Set(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, svc.Set("answer.top_k", "7"))
	require.NoError(t, svc.Set("answer.confidence_threshold", "0.8"))
	require.NoError(t, svc.Set("index.skip_create", "yes"))
	require.NoError(t, svc.Set("llm.timeout", "2m"))
	require.NoError(t, svc.Set("llm.provider", "anthropic"))

	assert.Equal(t, 7, store.data["answer.top_k"])
	assert.InDelta(t, 0.8, store.data["answer.confidence_threshold"], 1e-9)
	assert.Equal(t, true, store.data["index.skip_create"])
	assert.Equal(t, "2m0s", store.data["llm.timeout"])

	s, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, s.Answer.TopK)
	assert.Equal(t, 2*time.Minute, s.LLM.Timeout)
	assert.Equal(t, domain.AIProviderAnthropic, s.LLM.Provider)
}

func TestSettings_SetRejectsBadInput(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"no.such.key", "x"},
		{"answer.top_k", "lots"},
		{"answer.confidence_threshold", "1.5"},
		{"llm.provider", "local"},
		{"embedding.provider", "anthropic"},
		{"index.backend", "elastic"},
		{"source.kind", "sharepoint"},
		{"log.verbose", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			svc, store := newTestSettings(nil)
			err := svc.Set(tt.key, tt.value)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, store.data)
		})
	}
}

func TestSettings_Validate(t *testing.T) {
	t.Run("unconfigured llm", func(t *testing.T) {
		svc, _ := newTestSettings(nil)
		require.ErrorIs(t, svc.Validate(), domain.ErrInvalidConfig)
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{"HELPDESK_LLM_PROVIDER": "ollama"})
		require.NoError(t, svc.Validate())
	})

	t.Run("bad chunking", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{
			"HELPDESK_LLM_PROVIDER": "ollama",
			"CHUNK_MIN_TOKENS":      "900",
		})
		require.ErrorIs(t, svc.Validate(), domain.ErrInvalidConfig)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{
			"HELPDESK_LLM_PROVIDER": "ollama",
			"CONFIDENCE_THRESHOLD":  "-0.1",
		})
		require.ErrorIs(t, svc.Validate(), domain.ErrInvalidConfig)
	})
}

func TestSettings_KeysAndSecrets(t *testing.T) {
	svc, _ := newTestSettings(nil)

	keys := svc.Keys()

	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "llm.api_key")
	assert.Contains(t, keys, "chunking.overlap_max")
	assert.True(t, svc.IsSecret("llm.api_key"))
	assert.True(t, svc.IsSecret("confluence.api_token"))
	assert.False(t, svc.IsSecret("llm.model"))
	assert.False(t, svc.IsSecret("no.such.key"))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "HELPDESK_LLM_API_KEY", envName("llm.api_key"))
	assert.Equal(t, "HELPDESK_CONFLUENCE_SPACE_KEY", envName("confluence.space_key"))
}
