package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// ingestRunStore implements driven.IngestRunStore.
type ingestRunStore struct {
	store *Store
}

var _ driven.IngestRunStore = (*ingestRunStore)(nil)

// SaveRun records the summary of a finished run.
// Saving a run with an existing RunID replaces it.
func (s *ingestRunStore) SaveRun(ctx context.Context, stats domain.IngestStats) error {
	if stats.RunID == "" {
		stats.RunID = uuid.New().String()
	}
	if stats.StartedAt.IsZero() {
		stats.StartedAt = time.Now()
	}

	errs := stats.Errors
	if errs == nil {
		errs = []string{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshalling run errors: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, collection_key, pages_fetched, sections_extracted, chunks_created,
			embeddings_generated, documents_uploaded, errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_key = excluded.collection_key,
			pages_fetched = excluded.pages_fetched,
			sections_extracted = excluded.sections_extracted,
			chunks_created = excluded.chunks_created,
			embeddings_generated = excluded.embeddings_generated,
			documents_uploaded = excluded.documents_uploaded,
			errors = excluded.errors,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, stats.RunID, stats.CollectionKey, stats.PagesFetched, stats.SectionsExtracted, stats.ChunksCreated,
		stats.EmbeddingsGenerated, stats.DocumentsUploaded, string(errJSON),
		formatNullableTime(stats.StartedAt), formatNullableTime(stats.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving ingest run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run for a collection.
func (s *ingestRunStore) LastRun(ctx context.Context, collectionKey string) (*domain.IngestStats, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, collection_key, pages_fetched, sections_extracted, chunks_created,
			embeddings_generated, documents_uploaded, errors, started_at, finished_at
		FROM ingest_runs WHERE collection_key = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`, collectionKey)

	var (
		stats      domain.IngestStats
		errJSON    string
		started    sql.NullString
		finishedAt sql.NullString
	)
	err := row.Scan(&stats.RunID, &stats.CollectionKey, &stats.PagesFetched, &stats.SectionsExtracted,
		&stats.ChunksCreated, &stats.EmbeddingsGenerated, &stats.DocumentsUploaded, &errJSON,
		&started, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ingest run: %w", err)
	}

	if err := json.Unmarshal([]byte(errJSON), &stats.Errors); err != nil {
		return nil, fmt.Errorf("unmarshalling run errors: %w", err)
	}
	if len(stats.Errors) == 0 {
		stats.Errors = nil
	}
	stats.StartedAt = parseNullableTime(started)
	stats.FinishedAt = parseNullableTime(finishedAt)

	return &stats, nil
}
