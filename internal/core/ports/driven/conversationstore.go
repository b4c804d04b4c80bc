package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// ConversationStore persists answered turns and the feedback attached to them.
type ConversationStore interface {
	// PersistTurn saves a turn and returns its record ID.
	PersistTurn(ctx context.Context, rec domain.TurnRecord) (string, error)

	// GetTurn retrieves a turn by record ID.
	// Returns domain.ErrNotFound if the record does not exist.
	GetTurn(ctx context.Context, id string) (*domain.TurnRecord, error)

	// ListTurns returns the turns of a conversation, oldest first.
	ListTurns(ctx context.Context, conversationID string) ([]domain.TurnRecord, error)

	// RecordFeedback attaches feedback to an existing turn.
	// Returns domain.ErrNotFound if the record does not exist.
	RecordFeedback(ctx context.Context, fb domain.Feedback) error
}

// IngestRunStore keeps a history of ingestion runs.
type IngestRunStore interface {
	// SaveRun records the summary of a finished run.
	SaveRun(ctx context.Context, stats domain.IngestStats) error

	// LastRun returns the most recent run for a collection.
	// Returns domain.ErrNotFound if no run has been recorded.
	LastRun(ctx context.Context, collectionKey string) (*domain.IngestStats, error)
}
