// Package index creates the configured search index backend.
package index

import (
	"context"
	"fmt"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index/chroma"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index/chromem"
	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index/pgvector"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// New creates the search index selected by settings.Backend.
// Returns nil, nil when the backend is not configured.
func New(ctx context.Context, settings *domain.IndexSettings) (driven.SearchIndex, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		idx driven.SearchIndex
		err error
	)
	switch settings.Backend {
	case domain.IndexBackendChromem:
		idx, err = chromem.New(chromem.Config{Path: settings.Path, Name: settings.Name})
	case domain.IndexBackendPGVector:
		idx, err = pgvector.New(ctx, pgvector.Config{DSN: settings.DSN, Name: settings.Name})
	case domain.IndexBackendChroma:
		idx, err = chroma.New(chroma.Config{URL: settings.URL, Name: settings.Name})
	default:
		return nil, fmt.Errorf("%w: unsupported index backend %q", domain.ErrInvalidConfig, settings.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	return idx, nil
}
