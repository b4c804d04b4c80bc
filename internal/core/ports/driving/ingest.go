package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// IngestionService rebuilds the search index from the configured page source.
type IngestionService interface {
	// Run executes one ingestion run. Stage failures are reported in the
	// returned stats rather than as an error.
	Run(ctx context.Context, opts domain.IngestOptions) domain.IngestStats

	// LastRun returns the most recent recorded run for the configured collection.
	LastRun(ctx context.Context) (*domain.IngestStats, error)
}
