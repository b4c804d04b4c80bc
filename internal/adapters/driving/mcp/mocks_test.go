package mcp

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

type mockAnswerService struct {
	resp    *domain.ChatResponse
	err     error
	lastReq domain.ChatRequest
}

func (m *mockAnswerService) Answer(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

type mockSearchService struct {
	results  []domain.SourceDocument
	err      error
	lastTopK int
}

func (m *mockSearchService) Search(_ context.Context, _ string, topK int) ([]domain.SourceDocument, error) {
	m.lastTopK = topK
	return m.results, m.err
}

type mockFeedbackService struct {
	err  error
	last domain.Feedback
}

func (m *mockFeedbackService) Submit(_ context.Context, fb domain.Feedback) error {
	m.last = fb
	return m.err
}

type mockIngestService struct {
	last *domain.IngestStats
	err  error
}

func (m *mockIngestService) Run(_ context.Context, _ domain.IngestOptions) domain.IngestStats {
	return domain.IngestStats{}
}

func (m *mockIngestService) LastRun(_ context.Context) (*domain.IngestStats, error) {
	return m.last, m.err
}

type mockConversations struct {
	turns []domain.TurnRecord
	err   error
}

func (m *mockConversations) ListTurns(_ context.Context, _ string) ([]domain.TurnRecord, error) {
	return m.turns, m.err
}
