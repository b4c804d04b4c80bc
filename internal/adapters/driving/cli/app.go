package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/api"
	"github.com/custodia-labs/helpdesk/internal/adapters/driving/mcp"
	"github.com/custodia-labs/helpdesk/internal/connectors"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/core/services"
	"github.com/custodia-labs/helpdesk/internal/logger"
	"github.com/custodia-labs/helpdesk/internal/normalisers/html"
	"github.com/custodia-labs/helpdesk/internal/postprocessors/chunker"
	"github.com/custodia-labs/helpdesk/internal/postprocessors/tokens"
)

// needs declares which backends a command uses.
const needs = "helpdesk/needs"

// Values of the needs annotation.
const (
	needsStorage  = "storage"
	needsPipeline = "pipeline"
)

// settingsManager is the settings surface used by the CLI.
type settingsManager interface {
	driving.SettingsService
	IsSecret(key string) bool
}

// Services wired by bootstrap. Tests replace them directly.
var (
	settingsService    settingsManager
	answerService      driving.AnswerService
	searchService      driving.SearchService
	feedbackService    driving.FeedbackService
	ingestService      driving.IngestionService
	conversationReader mcp.ConversationReader
	pageSource         driven.PageSource
	healthInfo         api.Health
	promptStore        *file.PromptStore
	appLogger          = logger.Nop()
)

// loadServices wires the services for a command.
var loadServices = bootstrap

// checkBackends probes the AI providers for the check command.
var checkBackends = ai.Validate

var closers []func() error

// watchPrompts lets long-running commands pick up prompt edits without a
// restart.
func watchPrompts(ctx context.Context) {
	if promptStore == nil {
		return
	}
	if err := promptStore.Watch(ctx, appLogger); err != nil {
		appLogger.Warn("prompt edits will need a restart", "error", err)
	}
}

// shutdown releases backends in reverse order of opening.
func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			appLogger.Debug("close failed", "error", err)
		}
	}
	closers = nil
}

func bootstrap(cmd *cobra.Command) error {
	if err := loadEnv(envFile); err != nil {
		return err
	}

	dir := configDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return err
		}
		dir = d
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	svc := services.NewSettingsService(store, dir)
	settingsService = svc

	settings, settingsErr := svc.Get()

	log, err := logger.New(logger.Options{
		Output:  cmd.ErrOrStderr(),
		Verbose: verbose || settings.Verbose,
		File:    settings.LogFile,
	})
	if err != nil {
		return err
	}
	appLogger = log
	closers = append(closers, log.Close)

	if settingsErr != nil {
		log.Warn("ignoring invalid settings", "error", settingsErr)
	}

	switch cmd.Annotations[needs] {
	case needsStorage:
		openStorage(settings, log)
	case needsPipeline:
		_, runs := openStorage(settings, log)
		wirePipelines(cmd.Context(), settings, dir, runs, log)
	}
	return nil
}

// loadEnv loads a dotenv file. Without an explicit path a missing .env is fine.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// openStorage opens the SQLite database, falling back to in-memory stores
// so answering keeps working without persistence.
func openStorage(settings *domain.Settings, log *logger.Logger) (driven.ConversationStore, driven.IngestRunStore) {
	var (
		conversations driven.ConversationStore
		runs          driven.IngestRunStore
	)
	db, err := sqlite.Open(settings.StoragePath)
	if err != nil {
		log.Warn("conversation storage unavailable, keeping history in memory",
			"path", settings.StoragePath, "error", err)
		conversations = memory.NewConversationStore()
		runs = memory.NewIngestRunStore()
	} else {
		closers = append(closers, db.Close)
		conversations = db.ConversationStore()
		runs = db.IngestRunStore()
	}

	feedbackService = services.NewFeedbackService(conversations)
	conversationReader = conversations
	return conversations, runs
}

func wirePipelines(
	ctx context.Context, settings *domain.Settings, dir string, runs driven.IngestRunStore, log *logger.Logger,
) {
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		log.Warn("custom prompts unavailable", "error", err)
	}
	promptStore = prompts

	var llm driven.LLMService
	if svc, err := ai.CreateAndValidateLLMService(ctx, &settings.LLM); err != nil {
		log.Warn("llm unavailable", "provider", settings.LLM.Provider, "error", err)
	} else if svc != nil {
		llm = svc
		closers = append(closers, svc.Close)
	}

	var embedder driven.EmbeddingService
	if svc, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding); err != nil {
		log.Warn("embedding unavailable", "provider", settings.Embedding.Provider, "error", err)
	} else if svc != nil {
		embedder = svc
		closers = append(closers, svc.Close)
	}

	var idx driven.SearchIndex
	if svc, err := index.New(ctx, &settings.Index); err != nil {
		log.Warn("search index unavailable", "backend", settings.Index.Backend, "error", err)
	} else if svc != nil {
		idx = svc
		closers = append(closers, svc.Close)
	}

	router := services.NewIntentRouter(llm, log)
	generator := services.NewAnswerGenerator(llm)
	gate := services.NewConfidenceGate(llm, settings.Answer.UseLLMJudge, log)
	if prompts != nil {
		for _, aware := range []driven.PromptStoreAware{router, generator, gate} {
			aware.SetPromptStore(prompts)
		}
	}
	retriever := services.NewRetriever(embedder, idx, settings.Answer.SourceType, log)

	var conversations driven.ConversationStore
	if store, ok := conversationReader.(driven.ConversationStore); ok {
		conversations = store
	}
	answerService = services.NewAnswerPipeline(services.AnswerPipelineDeps{
		Router:    router,
		Retriever: retriever,
		Generator: generator,
		Gate:      gate,
		Store:     conversations,
		Settings:  settings.Answer,
		Timeouts:  services.Timeouts{LLM: settings.LLM.Timeout, Search: settings.Index.Timeout},
		Logger:    log,
	})
	searchService = retriever
	healthInfo = api.Health{IndexBackend: string(settings.Index.Backend), LLMModel: settings.LLM.Model}

	source, err := connectors.New(settings.Source, log)
	if err != nil {
		log.Debug("page source not configured", "kind", settings.Source.Kind, "error", err)
		return
	}
	if c, ok := source.(io.Closer); ok {
		closers = append(closers, c.Close)
	}
	pageSource = source

	ingestService = services.NewIngestionPipeline(services.IngestionDeps{
		Source:    source,
		Extractor: html.New(),
		Chunker:   chunker.New(chunker.WithTokenCounter(tokens.New())),
		Embedder:  embedder,
		Index:     idx,
		Runs:      runs,
		Logger:    log,
	}, services.IngestConfig{
		CollectionKey:   settings.Source.CollectionKey(),
		SourceType:      source.SourceType(),
		Chunking:        settings.Chunking,
		EmbedBatchSize:  settings.Embedding.BatchSize,
		UploadBatchSize: settings.Index.UploadBatchSize,
		SkipIndexCreate: settings.Index.SkipCreate,
	})
}
