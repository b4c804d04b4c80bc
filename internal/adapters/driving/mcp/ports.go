package mcp

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// ConversationReader reads back recorded turns.
type ConversationReader interface {
	ListTurns(ctx context.Context, conversationID string) ([]domain.TurnRecord, error)
}

// Ports aggregates the services the MCP server exposes.
type Ports struct {
	// Answer runs the decision pipeline for the ask tool.
	Answer driving.AnswerService

	// Search backs the search_kb tool.
	Search driving.SearchService

	// Feedback backs the feedback tool. Optional.
	Feedback driving.FeedbackService

	// Ingest backs the last-run resource. Optional.
	Ingest driving.IngestionService

	// Conversations backs the conversation resource. Optional.
	Conversations ConversationReader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
