package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// defaultTopK is used by search_kb when no top_k is given.
const defaultTopK = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Message        string `json:"message" jsonschema:"the IT-support question to answer"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation to continue; a new one is started when empty"`
}

// SearchInput is the input schema for the search_kb tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// SearchOutput is the output schema for the search_kb tool.
type SearchOutput struct {
	Results []domain.SourceDocument `json:"results"`
	Count   int                     `json:"count"`
}

// FeedbackInput is the input schema for the feedback tool.
type FeedbackInput struct {
	RecordID   string `json:"conversation_record_id" jsonschema:"record id returned by ask"`
	Rating     string `json:"rating" jsonschema:"thumbs_up or thumbs_down"`
	ReasonCode string `json:"reason_code,omitempty" jsonschema:"short machine-readable reason"`
	Notes      string `json:"notes,omitempty" jsonschema:"free-text notes"`
}

// FeedbackOutput is the output schema for the feedback tool.
type FeedbackOutput struct {
	Recorded bool `json:"recorded"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer an IT-support question. The answer is grounded in the knowledge base " +
			"and may require escalation to a human when confidence is low.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_kb",
		Description: "Search the IT knowledge base and return matching chunks without generating an answer",
	}, s.handleSearch)

	if s.ports.Feedback != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "feedback",
			Description: "Rate an answer previously returned by ask",
		}, s.handleFeedback)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.ChatResponse, error) {
	resp, err := s.ports.Answer.Answer(ctx, domain.ChatRequest{
		Message:        input.Message,
		ConversationID: input.ConversationID,
	})
	if err != nil {
		return nil, domain.ChatResponse{}, err
	}
	return nil, *resp, nil
}

// handleSearch handles the search_kb tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	results, err := s.ports.Search.Search(ctx, input.Query, topK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []domain.SourceDocument{}
	}

	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

// handleFeedback handles the feedback tool invocation.
func (s *Server) handleFeedback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FeedbackInput,
) (*mcp.CallToolResult, FeedbackOutput, error) {
	err := s.ports.Feedback.Submit(ctx, domain.Feedback{
		RecordID:   input.RecordID,
		Rating:     domain.Rating(input.Rating),
		ReasonCode: input.ReasonCode,
		Notes:      input.Notes,
	})
	if err != nil {
		return nil, FeedbackOutput{}, fmt.Errorf("feedback: %w", err)
	}
	return nil, FeedbackOutput{Recorded: true}, nil
}
