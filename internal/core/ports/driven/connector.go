package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// PageSource fetches knowledge-base pages from a content system.
type PageSource interface {
	// SourceType returns the source_type recorded on every chunk from this source.
	SourceType() string

	// FetchPages returns every page in the collection.
	// Pages that fail individually are skipped; an error means the collection
	// could not be read at all.
	FetchPages(ctx context.Context, collectionKey string) ([]domain.SourcePage, error)
}

// WatchablePageSource is a PageSource that can report content changes.
type WatchablePageSource interface {
	PageSource

	// Watch sends on the returned channel whenever the collection changes.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
