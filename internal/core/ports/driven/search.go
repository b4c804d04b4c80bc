package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// SearchIndex is the external hybrid keyword and vector index.
// It stores ChunkDocuments keyed by ID and returns SourceDocuments.
type SearchIndex interface {
	// Search runs a hybrid query and returns at most TopK documents, best first.
	Search(ctx context.Context, query SearchQuery) ([]domain.SourceDocument, error)

	// Upsert inserts or overwrites documents by ID.
	Upsert(ctx context.Context, docs []domain.ChunkDocument) error

	// EnsureSchema creates the index for vectors of the given size if it does not exist.
	EnsureSchema(ctx context.Context, dimensions int) error

	// Name identifies the backend for health reporting.
	Name() string

	// Close releases resources.
	Close() error
}

// SearchQuery is one hybrid retrieval request.
type SearchQuery struct {
	// Text is the raw query for keyword matching.
	Text string

	// Vector is the query embedding for similarity matching.
	Vector []float32

	// TopK bounds the number of results.
	TopK int

	// SourceType, when set, restricts results to documents of that source type.
	SourceType string
}
