package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAzure is an Azure OpenAI deployment.
	AIProviderAzure AIProvider = "azure"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderLocal is an in-process ONNX sentence transformer (embeddings only).
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAzure,
		AIProviderAnthropic, AIProviderGemini, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOpenAI, AIProviderAzure, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAzure:
		return "Azure OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderLocal:
		return "Local ONNX model"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies the search index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendChromem is an embedded, file-persisted vector store.
	IndexBackendChromem IndexBackend = "chromem"

	// IndexBackendPGVector is PostgreSQL with the pgvector extension.
	IndexBackendPGVector IndexBackend = "pgvector"

	// IndexBackendChroma is a remote Chroma server.
	IndexBackendChroma IndexBackend = "chroma"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendChromem, IndexBackendPGVector, IndexBackendChroma:
		return true
	default:
		return false
	}
}

// SourceKind identifies a knowledge-base page source.
type SourceKind string

// Available page sources.
const (
	SourceKindConfluence SourceKind = "confluence"
	SourceKindNotion     SourceKind = "notion"
	SourceKindFilesystem SourceKind = "filesystem"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindConfluence, SourceKindNotion, SourceKindFilesystem:
		return true
	default:
		return false
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model (or Azure deployment) name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// APIVersion is the Azure OpenAI api-version query parameter.
	APIVersion string

	// Timeout bounds each completion call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// APIVersion is the Azure OpenAI api-version query parameter.
	APIVersion string

	// Dimensions is the embedding vector size.
	Dimensions int

	// BatchSize is how many texts are sent per embedding request.
	BatchSize int

	// ModelDir caches downloaded local models.
	ModelDir string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds search index configuration.
type IndexSettings struct {
	// Backend selects the index implementation.
	Backend IndexBackend

	// Name is the index (collection or table) name.
	Name string

	// Path is the on-disk directory for the chromem backend.
	Path string

	// DSN is the PostgreSQL connection string for the pgvector backend.
	DSN string

	// URL is the Chroma server base URL.
	URL string

	// SkipCreate skips schema creation on repeated ingestion runs.
	SkipCreate bool

	// UploadBatchSize bounds documents per upsert call.
	UploadBatchSize int

	// Timeout bounds each search call.
	Timeout time.Duration
}

// IsConfigured returns true if the index backend is set up.
func (i IndexSettings) IsConfigured() bool {
	switch i.Backend {
	case IndexBackendChromem:
		return i.Path != ""
	case IndexBackendPGVector:
		return i.DSN != ""
	case IndexBackendChroma:
		return i.URL != ""
	default:
		return false
	}
}

// AnswerSettings holds answer pipeline configuration.
type AnswerSettings struct {
	// SourceType filters retrieval to one source type.
	SourceType string

	// TopK is the number of chunks retrieved per question.
	TopK int

	// ConfidenceThreshold is the minimum score for a grounded answer to stand.
	ConfidenceThreshold float64

	// UseLLMJudge selects the LLM self-evaluation scorer over the heuristic.
	UseLLMJudge bool

	// EscalationMessage is returned whenever a human must take over.
	EscalationMessage string

	// OffTopicMessage is returned for non-IT questions.
	OffTopicMessage string
}

// ConfluenceSettings configures the Confluence page source.
type ConfluenceSettings struct {
	BaseURL     string
	Email       string
	APIToken    string
	SpaceKey    string
	PageLimit   int
	Concurrency int
}

// IsConfigured returns true if the Confluence source can authenticate.
func (c ConfluenceSettings) IsConfigured() bool {
	return c.BaseURL != "" && c.Email != "" && c.APIToken != "" && c.SpaceKey != ""
}

// NotionSettings configures the Notion page source.
type NotionSettings struct {
	Token     string
	PageLimit int
}

// FilesystemSettings configures the local HTML directory page source.
type FilesystemSettings struct {
	Root string
}

// SourceSettings selects and configures the ingestion page source.
type SourceSettings struct {
	Kind       SourceKind
	Confluence ConfluenceSettings
	Notion     NotionSettings
	Filesystem FilesystemSettings
}

// CollectionKey returns the key identifying the configured collection.
func (s SourceSettings) CollectionKey() string {
	switch s.Kind {
	case SourceKindConfluence:
		return s.Confluence.SpaceKey
	case SourceKindFilesystem:
		return s.Filesystem.Root
	default:
		return string(s.Kind)
	}
}

// Settings holds all application settings.
type Settings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Index     IndexSettings
	Answer    AnswerSettings
	Chunking  ChunkingConfig
	Source    SourceSettings

	// StoragePath is the SQLite database for conversations and feedback.
	StoragePath string

	// ServerAddr is the HTTP listen address.
	ServerAddr string

	// LogFile, when set, receives JSON log records.
	LogFile string

	// Verbose enables debug logging.
	Verbose bool
}

// Default messages.
const (
	DefaultEscalationMessage = "I wasn't able to find a confident answer to your question. " +
		"This issue may require creating a support ticket so a member of the IT team can help."
	DefaultOffTopicMessage = "I'm an IT support assistant, so I can only help with IT-related questions. " +
		"Please ask me about software, hardware, accounts, or other IT topics."
)

// DefaultSettings returns settings with sensible defaults.
// AI providers and the page source are left unconfigured.
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMSettings{
			Timeout: 60 * time.Second,
		},
		Embedding: EmbeddingSettings{
			Dimensions: 1536,
			BatchSize:  10,
		},
		Index: IndexSettings{
			Backend:         IndexBackendChromem,
			Name:            "confluence-chunks",
			UploadBatchSize: 1000,
			Timeout:         30 * time.Second,
		},
		Answer: AnswerSettings{
			SourceType:          string(SourceKindConfluence),
			TopK:                5,
			ConfidenceThreshold: 0.65,
			UseLLMJudge:         true,
			EscalationMessage:   DefaultEscalationMessage,
			OffTopicMessage:     DefaultOffTopicMessage,
		},
		Chunking: DefaultChunkingConfig(),
		Source: SourceSettings{
			Kind: SourceKindConfluence,
			Confluence: ConfluenceSettings{
				PageLimit:   1000,
				Concurrency: 4,
			},
			Notion: NotionSettings{
				PageLimit: 1000,
			},
		},
		ServerAddr: ":8000",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAzure:     "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderAzure:  "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
		AIProviderLocal:  "sentence-transformers/all-MiniLM-L6-v2",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
		// Local sentence transformers
		"sentence-transformers/all-MiniLM-L6-v2": 384,
	}
}
