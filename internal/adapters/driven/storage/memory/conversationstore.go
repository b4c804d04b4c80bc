package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu       sync.RWMutex
	turns    map[string]domain.TurnRecord
	order    []string
	feedback map[string][]domain.Feedback
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		turns:    make(map[string]domain.TurnRecord),
		feedback: make(map[string][]domain.Feedback),
	}
}

// PersistTurn stores a turn and returns its record ID.
func (s *ConversationStore) PersistTurn(_ context.Context, rec domain.TurnRecord) (string, error) {
	if rec.ConversationID == "" {
		return "", fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.SourceIDs = append([]string(nil), rec.SourceIDs...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.turns[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.turns[rec.ID] = rec
	return rec.ID, nil
}

// GetTurn retrieves a turn by record ID.
func (s *ConversationStore) GetTurn(_ context.Context, id string) (*domain.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.turns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListTurns returns the turns of a conversation, oldest first.
func (s *ConversationStore) ListTurns(_ context.Context, conversationID string) ([]domain.TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var turns []domain.TurnRecord
	for _, id := range s.order {
		if rec := s.turns[id]; rec.ConversationID == conversationID {
			turns = append(turns, rec)
		}
	}
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].CreatedAt.Before(turns[j].CreatedAt) })
	return turns, nil
}

// RecordFeedback attaches feedback to an existing turn.
func (s *ConversationStore) RecordFeedback(_ context.Context, fb domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.turns[fb.RecordID]; !ok {
		return fmt.Errorf("%w: conversation record %s", domain.ErrNotFound, fb.RecordID)
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	s.feedback[fb.RecordID] = append(s.feedback[fb.RecordID], fb)
	return nil
}

// Feedback returns the feedback recorded against a turn.
func (s *ConversationStore) Feedback(recordID string) []domain.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Feedback(nil), s.feedback[recordID]...)
}
