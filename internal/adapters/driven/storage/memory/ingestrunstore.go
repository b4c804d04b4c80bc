package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure IngestRunStore implements the interface.
var _ driven.IngestRunStore = (*IngestRunStore)(nil)

// IngestRunStore is an in-memory implementation of driven.IngestRunStore.
type IngestRunStore struct {
	mu   sync.RWMutex
	last map[string]domain.IngestStats
}

// NewIngestRunStore creates a new in-memory ingest run store.
func NewIngestRunStore() *IngestRunStore {
	return &IngestRunStore{
		last: make(map[string]domain.IngestStats),
	}
}

// SaveRun records a run, keeping the latest per collection.
func (s *IngestRunStore) SaveRun(_ context.Context, stats domain.IngestStats) error {
	if stats.RunID == "" {
		stats.RunID = uuid.New().String()
	}
	stats.Errors = append([]string(nil), stats.Errors...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[stats.CollectionKey]; ok && prev.StartedAt.After(stats.StartedAt) {
		return nil
	}
	s.last[stats.CollectionKey] = stats
	return nil
}

// LastRun returns the most recent run for a collection.
func (s *IngestRunStore) LastRun(_ context.Context, collectionKey string) (*domain.IngestStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats, ok := s.last[collectionKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &stats, nil
}
