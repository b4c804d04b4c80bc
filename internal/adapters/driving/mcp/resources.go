package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

const uriScheme = "helpdesk://"

// registerResources registers resource handlers for the optional ports.
func (s *Server) registerResources() {
	if s.ports.Ingest != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "ingest/last-run",
			Name:        "last-ingest-run",
			Description: "Summary of the most recent knowledge-base ingestion run",
			MIMEType:    "application/json",
		}, s.handleLastRunResource)
	}

	if s.ports.Conversations != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "conversations/{conversationId}",
			Name:        "conversation",
			Description: "Recorded turns of a conversation, oldest first",
			MIMEType:    "application/json",
		}, s.handleConversationResource)
	}
}

type runInfo struct {
	RunID               string   `json:"run_id"`
	CollectionKey       string   `json:"collection_key"`
	PagesFetched        int      `json:"pages_fetched"`
	SectionsExtracted   int      `json:"sections_extracted"`
	ChunksCreated       int      `json:"chunks_created"`
	EmbeddingsGenerated int      `json:"embeddings_generated"`
	DocumentsUploaded   int      `json:"documents_uploaded"`
	Errors              []string `json:"errors,omitempty"`
	StartedAt           string   `json:"started_at"`
	DurationSeconds     float64  `json:"duration_seconds"`
}

// handleLastRunResource returns the last recorded ingestion run.
func (s *Server) handleLastRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	run, err := s.ports.Ingest.LastRun(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	return jsonResource(req.Params.URI, runInfo{
		RunID:               run.RunID,
		CollectionKey:       run.CollectionKey,
		PagesFetched:        run.PagesFetched,
		SectionsExtracted:   run.SectionsExtracted,
		ChunksCreated:       run.ChunksCreated,
		EmbeddingsGenerated: run.EmbeddingsGenerated,
		DocumentsUploaded:   run.DocumentsUploaded,
		Errors:              run.Errors,
		StartedAt:           run.StartedAt.UTC().Format(time.RFC3339),
		DurationSeconds:     run.Duration().Seconds(),
	})
}

type turnInfo struct {
	ID                 string   `json:"id"`
	UserMessage        string   `json:"user_message"`
	Response           string   `json:"response"`
	Intent             string   `json:"intent"`
	AnswerType         string   `json:"answer_type"`
	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
	RequiresEscalation bool     `json:"requires_escalation"`
	SourceIDs          []string `json:"source_ids,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

// handleConversationResource returns the turns of one conversation.
func (s *Server) handleConversationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	cid := extractConversationID(req.Params.URI)
	if cid == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	turns, err := s.ports.Conversations.ListTurns(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	infos := make([]turnInfo, len(turns))
	for i, t := range turns {
		infos[i] = turnInfo{
			ID:                 t.ID,
			UserMessage:        t.UserMessage,
			Response:           t.Response,
			Intent:             t.Intent.String(),
			AnswerType:         t.AnswerType.String(),
			ConfidenceScore:    t.ConfidenceScore,
			RequiresEscalation: t.RequiresEscalation,
			SourceIDs:          t.SourceIDs,
			CreatedAt:          t.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractConversationID extracts the id from helpdesk://conversations/{conversationId}.
func extractConversationID(uri string) string {
	const prefix = uriScheme + "conversations/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
