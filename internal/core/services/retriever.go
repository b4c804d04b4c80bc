package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.SearchService = (*Retriever)(nil)

// defaultTopK is used when a caller asks for zero results.
const defaultTopK = 5

// Retriever runs hybrid queries against the search index populated by ingestion.
type Retriever struct {
	embedder   driven.EmbeddingService
	index      driven.SearchIndex
	sourceType string
	log        *logger.Logger
}

// NewRetriever creates a retriever restricted to documents of sourceType.
// An empty sourceType disables the filter. Either port may be nil, in which
// case Configured reports false.
func NewRetriever(
	embedder driven.EmbeddingService, index driven.SearchIndex, sourceType string, log *logger.Logger,
) *Retriever {
	if log == nil {
		log = logger.Nop()
	}
	return &Retriever{embedder: embedder, index: index, sourceType: sourceType, log: log}
}

// Configured reports whether both the embedder and the index are available.
func (r *Retriever) Configured() bool {
	return r != nil && r.embedder != nil && r.index != nil
}

// Retrieve returns at most topK documents for query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error) {
	if !r.Configured() {
		return nil, domain.ErrSearchUnavailable
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := r.index.Search(ctx, driven.SearchQuery{
		Text:       query,
		Vector:     vector,
		TopK:       topK,
		SourceType: r.sourceType,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.index.Name(), err)
	}
	if len(docs) > topK {
		docs = docs[:topK]
	}

	r.log.Debug("retrieval complete", "top_k", topK, "num_docs", len(docs), "document_ids", sourceIDs(docs))
	return docs, nil
}

// Search implements driving.SearchService for callers that want raw hits.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SourceDocument{}, nil
	}
	return r.Retrieve(ctx, query, topK)
}

func sourceIDs(docs []domain.SourceDocument) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.SourceID
	}
	return ids
}
