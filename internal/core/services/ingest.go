package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.IngestionService = (*IngestionPipeline)(nil)

// Batch size defaults.
const (
	defaultEmbedBatchSize  = 10
	defaultUploadBatchSize = 1000
)

// IngestConfig configures an IngestionPipeline.
type IngestConfig struct {
	// CollectionKey selects the collection the page source reads
	// (a Confluence space key, a directory, ...).
	CollectionKey string

	// SourceType is recorded on every chunk document.
	SourceType string

	Chunking        domain.ChunkingConfig
	EmbedBatchSize  int
	UploadBatchSize int
	SkipIndexCreate bool
}

// IngestionPipeline turns knowledge-base pages into chunk documents in the
// search index: fetch, extract, chunk, embed, ensure schema, upsert.
type IngestionPipeline struct {
	source    driven.PageSource
	extractor driven.SectionExtractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.SearchIndex
	runs      driven.IngestRunStore
	cfg       IngestConfig
	log       *logger.Logger
	now       func() time.Time
}

// IngestionDeps groups the collaborators of an IngestionPipeline.
// Runs is optional.
type IngestionDeps struct {
	Source    driven.PageSource
	Extractor driven.SectionExtractor
	Chunker   driven.Chunker
	Embedder  driven.EmbeddingService
	Index     driven.SearchIndex
	Runs      driven.IngestRunStore
	Logger    *logger.Logger
}

// NewIngestionPipeline creates an ingestion pipeline.
func NewIngestionPipeline(deps IngestionDeps, cfg IngestConfig) *IngestionPipeline {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = defaultEmbedBatchSize
	}
	if cfg.UploadBatchSize <= 0 {
		cfg.UploadBatchSize = defaultUploadBatchSize
	}
	if cfg.SourceType == "" && deps.Source != nil {
		cfg.SourceType = deps.Source.SourceType()
	}
	return &IngestionPipeline{
		source:    deps.Source,
		extractor: deps.Extractor,
		chunker:   deps.Chunker,
		embedder:  deps.Embedder,
		index:     deps.Index,
		runs:      deps.Runs,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one ingestion run. The first failing stage is recorded in
// stats.Errors and the remaining stages are skipped.
func (p *IngestionPipeline) Run(ctx context.Context, opts domain.IngestOptions) domain.IngestStats {
	stats := domain.IngestStats{
		RunID:         uuid.New().String(),
		CollectionKey: p.cfg.CollectionKey,
		StartedAt:     p.now().UTC(),
	}
	log := p.log.With("run_id", stats.RunID, "collection", p.cfg.CollectionKey)

	p.run(ctx, log, opts, &stats)
	stats.FinishedAt = p.now().UTC()

	log.Info("ingestion complete",
		"pages", stats.PagesFetched,
		"sections", stats.SectionsExtracted,
		"chunks", stats.ChunksCreated,
		"embeddings", stats.EmbeddingsGenerated,
		"uploaded", stats.DocumentsUploaded,
		"errors", len(stats.Errors),
		"duration", stats.Duration().String(),
	)
	for _, e := range stats.Errors {
		log.Error("ingestion error", "error", e)
	}

	if p.runs != nil && !opts.DryRun {
		if err := p.runs.SaveRun(ctx, stats); err != nil {
			log.Warn("failed to record ingestion run", "error", err)
		}
	}
	return stats
}

// LastRun returns the most recent recorded run for the configured collection.
func (p *IngestionPipeline) LastRun(ctx context.Context) (*domain.IngestStats, error) {
	if p.runs == nil {
		return nil, domain.ErrNotFound
	}
	return p.runs.LastRun(ctx, p.cfg.CollectionKey)
}

func (p *IngestionPipeline) run(
	ctx context.Context, log *logger.Logger, opts domain.IngestOptions, stats *domain.IngestStats,
) {
	fail := func(stage string, err error) {
		stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", stage, err))
	}

	if p.source == nil {
		fail("fetch", domain.ErrConnectorUnavailable)
		return
	}

	log.Section("Fetch")
	pages, err := p.source.FetchPages(ctx, p.cfg.CollectionKey)
	if err != nil {
		fail("fetch", err)
		return
	}
	stats.PagesFetched = len(pages)

	log.Section("Chunk")
	docs := p.buildDocuments(pages, stats)
	stats.ChunksCreated = len(docs)
	if len(docs) == 0 {
		log.Warn("no chunks to ingest")
		return
	}

	log.Section("Embed")
	if p.embedder == nil {
		fail("embed", domain.ErrEmbeddingUnavailable)
		return
	}
	if err := p.embed(ctx, docs, stats); err != nil {
		fail("embed", err)
		return
	}

	if opts.DryRun {
		log.Info("dry run: skipping index writes", "documents", len(docs))
		return
	}
	if p.index == nil {
		fail("index", domain.ErrSearchUnavailable)
		return
	}

	if p.cfg.SkipIndexCreate || opts.SkipIndexCreate {
		log.Info("skipping index create")
	} else {
		log.Section("Ensure Schema")
		if err := p.index.EnsureSchema(ctx, p.embedder.Dimensions()); err != nil {
			fail("ensure index", err)
			return
		}
	}

	log.Section("Upload")
	if err := p.upload(ctx, docs, stats); err != nil {
		fail("upload", err)
	}
}

// buildDocuments extracts and chunks every page into documents without embeddings.
func (p *IngestionPipeline) buildDocuments(pages []domain.SourcePage, stats *domain.IngestStats) []domain.ChunkDocument {
	var docs []domain.ChunkDocument
	for _, page := range pages {
		var chunks []domain.Chunk
		if strings.TrimSpace(page.HTML) == "" {
			chunks = p.chunker.ChunkPlainText(page.Text, p.cfg.Chunking)
		} else {
			sections := p.extractor.Extract(page.HTML)
			stats.SectionsExtracted += len(sections)
			chunks = p.chunker.Chunk(sections, p.cfg.Chunking)
		}

		lastUpdated := truncate(page.LastUpdated, domain.MaxLastUpdatedLen)
		for i, ch := range chunks {
			docs = append(docs, domain.ChunkDocument{
				ID:            p.chunker.ChunkID(page.ID, ch.SectionTitle, i),
				Content:       ch.Content,
				SourceType:    p.cfg.SourceType,
				CollectionKey: p.cfg.CollectionKey,
				SourcePageID:  page.ID,
				SourceTitle:   page.Title,
				SectionTitle:  ch.SectionTitle,
				URL:           page.URL,
				LastUpdated:   lastUpdated,
				Version:       page.Version,
			})
		}
	}
	return docs
}

// embed fills the Embedding of every document, EmbedBatchSize texts per call.
func (p *IngestionPipeline) embed(ctx context.Context, docs []domain.ChunkDocument, stats *domain.IngestStats) error {
	for start := 0; start < len(docs); start += p.cfg.EmbedBatchSize {
		end := min(start+p.cfg.EmbedBatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Content)
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("batch %d-%d: got %d embeddings for %d texts", start, end, len(vectors), len(texts))
		}
		for i, v := range vectors {
			docs[start+i].Embedding = v
		}
		stats.EmbeddingsGenerated += len(vectors)
	}
	return nil
}

// upload upserts documents UploadBatchSize at a time.
func (p *IngestionPipeline) upload(ctx context.Context, docs []domain.ChunkDocument, stats *domain.IngestStats) error {
	for start := 0; start < len(docs); start += p.cfg.UploadBatchSize {
		end := min(start+p.cfg.UploadBatchSize, len(docs))
		if err := p.index.Upsert(ctx, docs[start:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		stats.DocumentsUploaded += end - start
	}
	return nil
}
