package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes the environment variable of every config key:
// "llm.api_key" is overridden by HELPDESK_LLM_API_KEY.
const EnvPrefix = "HELPDESK_"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

// setting binds one dotted config key to a field of domain.Settings.
type setting struct {
	key     string
	kind    valueKind
	aliases []string // additional environment variables, lowest priority first
	secret  bool
	apply   func(s *domain.Settings, v any)
}

func str(fn func(s *domain.Settings, v string)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { fn(s, v.(string)) }
}

func integer(fn func(s *domain.Settings, v int)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { fn(s, v.(int)) }
}

func float(fn func(s *domain.Settings, v float64)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { fn(s, v.(float64)) }
}

func boolean(fn func(s *domain.Settings, v bool)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { fn(s, v.(bool)) }
}

func duration(fn func(s *domain.Settings, v time.Duration)) func(*domain.Settings, any) {
	return func(s *domain.Settings, v any) { fn(s, v.(time.Duration)) }
}

//nolint:gosec,lll // G101: key names, not credentials.
var settingsTable = []setting{
	{key: "llm.provider", apply: str(func(s *domain.Settings, v string) { s.LLM.Provider = domain.AIProvider(v) })},
	{key: "llm.model", aliases: []string{"AZURE_FOUNDRY_DEPLOYMENT_NAME"}, apply: str(func(s *domain.Settings, v string) { s.LLM.Model = v })},
	{key: "llm.base_url", aliases: []string{"AZURE_FOUNDRY_ENDPOINT"}, apply: str(func(s *domain.Settings, v string) { s.LLM.BaseURL = v })},
	{key: "llm.api_key", aliases: []string{"AZURE_FOUNDRY_API_KEY"}, secret: true, apply: str(func(s *domain.Settings, v string) { s.LLM.APIKey = v })},
	{key: "llm.api_version", aliases: []string{"AZURE_FOUNDRY_API_VERSION"}, apply: str(func(s *domain.Settings, v string) { s.LLM.APIVersion = v })},
	{key: "llm.timeout", kind: kindDuration, apply: duration(func(s *domain.Settings, v time.Duration) { s.LLM.Timeout = v })},

	{key: "embedding.provider", apply: str(func(s *domain.Settings, v string) { s.Embedding.Provider = domain.AIProvider(v) })},
	{key: "embedding.model", aliases: []string{"AZURE_FOUNDRY_EMBEDDING_DEPLOYMENT"}, apply: str(func(s *domain.Settings, v string) { s.Embedding.Model = v })},
	{key: "embedding.base_url", aliases: []string{"AZURE_FOUNDRY_ENDPOINT"}, apply: str(func(s *domain.Settings, v string) { s.Embedding.BaseURL = v })},
	{key: "embedding.api_key", aliases: []string{"AZURE_FOUNDRY_API_KEY"}, secret: true, apply: str(func(s *domain.Settings, v string) { s.Embedding.APIKey = v })},
	{key: "embedding.api_version", aliases: []string{"AZURE_FOUNDRY_API_VERSION"}, apply: str(func(s *domain.Settings, v string) { s.Embedding.APIVersion = v })},
	{key: "embedding.dimensions", kind: kindInt, aliases: []string{"AZURE_FOUNDRY_EMBEDDING_DIMENSIONS"}, apply: integer(func(s *domain.Settings, v int) { s.Embedding.Dimensions = v })},
	{key: "embedding.batch_size", kind: kindInt, aliases: []string{"EMBEDDING_BATCH_SIZE"}, apply: integer(func(s *domain.Settings, v int) { s.Embedding.BatchSize = v })},
	{key: "embedding.model_dir", apply: str(func(s *domain.Settings, v string) { s.Embedding.ModelDir = v })},

	{key: "index.backend", apply: str(func(s *domain.Settings, v string) { s.Index.Backend = domain.IndexBackend(v) })},
	{key: "index.name", aliases: []string{"AZURE_SEARCH_INDEX_NAME"}, apply: str(func(s *domain.Settings, v string) { s.Index.Name = v })},
	{key: "index.path", apply: str(func(s *domain.Settings, v string) { s.Index.Path = v })},
	{key: "index.dsn", aliases: []string{"DATABASE_URL"}, secret: true, apply: str(func(s *domain.Settings, v string) { s.Index.DSN = v })},
	{key: "index.url", aliases: []string{"CHROMA_URL"}, apply: str(func(s *domain.Settings, v string) { s.Index.URL = v })},
	{key: "index.skip_create", kind: kindBool, aliases: []string{"SKIP_INDEX_CREATE", "INGESTION_SKIP_INDEX_CREATE"}, apply: boolean(func(s *domain.Settings, v bool) { s.Index.SkipCreate = v })},
	{key: "index.upload_batch_size", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Index.UploadBatchSize = v })},
	{key: "index.timeout", kind: kindDuration, apply: duration(func(s *domain.Settings, v time.Duration) { s.Index.Timeout = v })},

	{key: "answer.source_type", apply: str(func(s *domain.Settings, v string) { s.Answer.SourceType = v })},
	{key: "answer.top_k", kind: kindInt, aliases: []string{"RAG_TOP_K"}, apply: integer(func(s *domain.Settings, v int) { s.Answer.TopK = v })},
	{key: "answer.confidence_threshold", kind: kindFloat, aliases: []string{"CONFIDENCE_THRESHOLD"}, apply: float(func(s *domain.Settings, v float64) { s.Answer.ConfidenceThreshold = v })},
	{key: "answer.use_llm_judge", kind: kindBool, apply: boolean(func(s *domain.Settings, v bool) { s.Answer.UseLLMJudge = v })},
	{key: "answer.escalation_message", aliases: []string{"ESCALATION_MESSAGE"}, apply: str(func(s *domain.Settings, v string) { s.Answer.EscalationMessage = v })},
	{key: "answer.off_topic_message", aliases: []string{"OFF_TOPIC_MESSAGE"}, apply: str(func(s *domain.Settings, v string) { s.Answer.OffTopicMessage = v })},

	{key: "chunking.target_tokens", kind: kindInt, aliases: []string{"CHUNK_TARGET_TOKENS"}, apply: integer(func(s *domain.Settings, v int) { s.Chunking.TargetTokens = v })},
	{key: "chunking.min_tokens", kind: kindInt, aliases: []string{"CHUNK_MIN_TOKENS"}, apply: integer(func(s *domain.Settings, v int) { s.Chunking.MinTokens = v })},
	{key: "chunking.max_tokens", kind: kindInt, aliases: []string{"CHUNK_MAX_TOKENS"}, apply: integer(func(s *domain.Settings, v int) { s.Chunking.MaxTokens = v })},
	{key: "chunking.overlap_min", kind: kindInt, aliases: []string{"CHUNK_OVERLAP_MIN"}, apply: integer(func(s *domain.Settings, v int) { s.Chunking.OverlapMin = v })},
	{key: "chunking.overlap_max", kind: kindInt, aliases: []string{"CHUNK_OVERLAP_MAX"}, apply: integer(func(s *domain.Settings, v int) { s.Chunking.OverlapMax = v })},

	{key: "source.kind", apply: str(func(s *domain.Settings, v string) { s.Source.Kind = domain.SourceKind(v) })},
	{key: "confluence.base_url", aliases: []string{"CONFLUENCE_BASE_URL"}, apply: str(func(s *domain.Settings, v string) { s.Source.Confluence.BaseURL = v })},
	{key: "confluence.email", aliases: []string{"CONFLUENCE_EMAIL"}, apply: str(func(s *domain.Settings, v string) { s.Source.Confluence.Email = v })},
	{key: "confluence.api_token", aliases: []string{"CONFLUENCE_API_TOKEN"}, secret: true, apply: str(func(s *domain.Settings, v string) { s.Source.Confluence.APIToken = v })},
	{key: "confluence.space_key", aliases: []string{"CONFLUENCE_SPACE_KEY"}, apply: str(func(s *domain.Settings, v string) { s.Source.Confluence.SpaceKey = v })},
	{key: "confluence.page_limit", kind: kindInt, aliases: []string{"CONFLUENCE_PAGE_LIMIT"}, apply: integer(func(s *domain.Settings, v int) { s.Source.Confluence.PageLimit = v })},
	{key: "confluence.concurrency", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Source.Confluence.Concurrency = v })},
	{key: "notion.token", aliases: []string{"NOTION_API_KEY"}, secret: true, apply: str(func(s *domain.Settings, v string) { s.Source.Notion.Token = v })},
	{key: "notion.page_limit", kind: kindInt, apply: integer(func(s *domain.Settings, v int) { s.Source.Notion.PageLimit = v })},
	{key: "filesystem.root", apply: str(func(s *domain.Settings, v string) { s.Source.Filesystem.Root = v })},

	{key: "storage.path", apply: str(func(s *domain.Settings, v string) { s.StoragePath = v })},
	{key: "server.addr", apply: str(func(s *domain.Settings, v string) { s.ServerAddr = v })},
	{key: "log.file", apply: str(func(s *domain.Settings, v string) { s.LogFile = v })},
	{key: "log.verbose", kind: kindBool, apply: boolean(func(s *domain.Settings, v bool) { s.Verbose = v })},
}

// SettingsService builds domain.Settings from defaults, the config file,
// and the environment, in increasing priority.
type SettingsService struct {
	configStore driven.ConfigStore
	dataDir     string
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a settings service. dataDir anchors the default
// paths of the index, the database and downloaded models.
func NewSettingsService(configStore driven.ConfigStore, dataDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		dataDir:     dataDir,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup, for tests.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	s.lookupEnv = fn
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := s.GetDefaults()
	var errs []error

	for _, def := range settingsTable {
		if raw, ok := s.configStore.Get(def.key); ok {
			v, err := coerce(def.kind, raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", def.key, err))
			} else {
				def.apply(&settings, v)
			}
		}

		if raw, ok := s.env(def); ok {
			v, err := parse(def.kind, raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", envName(def.key), err))
				continue
			}
			def.apply(&settings, v)
		}
	}

	s.fillModelDefaults(&settings)

	if len(errs) > 0 {
		return &settings, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return &settings, nil
}

// Set parses value for key and persists it with its native TOML type.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	v, err := parse(def.kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	trial := s.GetDefaults()
	def.apply(&trial, v)
	if err := validateField(key, trial); err != nil {
		return err
	}

	if d, isDuration := v.(time.Duration); isDuration {
		v = d.String()
	}
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised config key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsTable))
	for _, def := range settingsTable {
		keys = append(keys, def.key)
	}
	sort.Strings(keys)
	return keys
}

// IsSecret reports whether key holds a credential that should be masked.
func (s *SettingsService) IsSecret(key string) bool {
	def, ok := lookupSetting(key)
	return ok && def.secret
}

// Validate checks that settings are usable for answering questions.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("llm provider %q is not configured", settings.LLM.Provider))
	}
	if err := settings.Chunking.Validate(); err != nil {
		errs = append(errs, err)
	}
	if t := settings.Answer.ConfidenceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("answer.confidence_threshold %v is outside [0,1]", t))
	}
	if !settings.Index.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("unknown index backend %q", settings.Index.Backend))
	}
	if settings.Source.Kind != "" && !settings.Source.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("unknown source kind %q", settings.Source.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// GetDefaults returns default settings with paths under the data directory.
func (s *SettingsService) GetDefaults() domain.Settings {
	settings := domain.DefaultSettings()
	if s.dataDir != "" {
		settings.Index.Path = filepath.Join(s.dataDir, "index")
		settings.StoragePath = filepath.Join(s.dataDir, "helpdesk.db")
		settings.Embedding.ModelDir = filepath.Join(s.dataDir, "models")
	}
	return settings
}

// fillModelDefaults picks a provider's default model, and the model's known
// dimensions, when none were configured.
func (s *SettingsService) fillModelDefaults(settings *domain.Settings) {
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	embeddingModelSet := settings.Embedding.Model != ""
	if !embeddingModelSet {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if _, ok := s.configStore.Get("embedding.dimensions"); ok {
		return
	}
	if _, ok := s.env(mustSetting("embedding.dimensions")); ok {
		return
	}
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}
}

func (s *SettingsService) env(def setting) (string, bool) {
	if v, ok := s.lookupEnv(envName(def.key)); ok {
		return v, true
	}
	for i := len(def.aliases) - 1; i >= 0; i-- {
		if v, ok := s.lookupEnv(def.aliases[i]); ok {
			return v, true
		}
	}
	return "", false
}

// envName maps "llm.api_key" to "HELPDESK_LLM_API_KEY".
func envName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func lookupSetting(key string) (setting, bool) {
	for _, def := range settingsTable {
		if def.key == key {
			return def, true
		}
	}
	return setting{}, false
}

func mustSetting(key string) setting {
	def, ok := lookupSetting(key)
	if !ok {
		panic("unknown setting " + key)
	}
	return def
}

func validateField(key string, s domain.Settings) error {
	switch key {
	case "llm.provider":
		if !s.LLM.Provider.IsValid() || s.LLM.Provider == domain.AIProviderLocal {
			return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrInvalidInput, s.LLM.Provider)
		}
	case "embedding.provider":
		if !s.Embedding.Provider.IsValid() || s.Embedding.Provider == domain.AIProviderAnthropic {
			return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrInvalidInput, s.Embedding.Provider)
		}
	case "index.backend":
		if !s.Index.Backend.IsValid() {
			return fmt.Errorf("%w: invalid index backend %q", domain.ErrInvalidInput, s.Index.Backend)
		}
	case "source.kind":
		if !s.Source.Kind.IsValid() {
			return fmt.Errorf("%w: invalid source kind %q", domain.ErrInvalidInput, s.Source.Kind)
		}
	case "answer.confidence_threshold":
		if t := s.Answer.ConfidenceThreshold; t < 0 || t > 1 {
			return fmt.Errorf("%w: confidence threshold %v is outside [0,1]", domain.ErrInvalidInput, t)
		}
	}
	return nil
}

// parse converts a string from the CLI or environment to the key's type.
func parse(kind valueKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		switch strings.ToLower(raw) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off", "":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", raw)
	case kindDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

// coerce converts a value decoded from TOML to the key's type.
func coerce(kind valueKind, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return parse(kind, v)
	case int64:
		switch kind {
		case kindInt:
			return int(v), nil
		case kindFloat:
			return float64(v), nil
		case kindDuration:
			return time.Duration(v) * time.Second, nil
		}
	case int:
		return coerce(kind, int64(v))
	case float64:
		if kind == kindFloat {
			return v, nil
		}
	case bool:
		if kind == kindBool {
			return v, nil
		}
	}
	if kind == kindString {
		return fmt.Sprint(raw), nil
	}
	return nil, fmt.Errorf("unexpected value %v (%T)", raw, raw)
}
