package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// AnswerService answers one user turn.
type AnswerService interface {
	// Answer runs the full decision pipeline for a chat request.
	// Exactly one decision is produced per call.
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}

// SearchService exposes knowledge-base retrieval without generation.
type SearchService interface {
	// Search returns at most topK knowledge-base chunks for the query.
	Search(ctx context.Context, query string, topK int) ([]domain.SourceDocument, error)
}
