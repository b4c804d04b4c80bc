package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure AnswerGenerator can use custom prompts.
var _ driven.PromptStoreAware = (*AnswerGenerator)(nil)

// Generation call parameters.
const (
	groundedTemperature = 0.3
	groundedMaxTokens   = 500
	genericTemperature  = 0.7
	genericMaxTokens    = 500
)

// NoContextAnswer is returned by the generator when it is given no documents.
const NoContextAnswer = "I couldn't find relevant information in the knowledge base for this question. " +
	"This issue may require creating a support ticket."

// AnswerGenerator produces answers with the language model: grounded answers
// from retrieved context, and persona answers for general questions.
type AnswerGenerator struct {
	llm     driven.LLMService
	prompts promptLoader
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(llm driven.LLMService) *AnswerGenerator {
	return &AnswerGenerator{llm: llm}
}

// SetPromptStore sets the prompt store for customisable prompts.
func (g *AnswerGenerator) SetPromptStore(store driven.PromptStore) {
	g.prompts.store = store
}

// Generate answers query using only the given documents.
// Without documents it returns NoContextAnswer and makes no call.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, docs []domain.SourceDocument) (string, error) {
	if len(docs) == 0 {
		return NoContextAnswer, nil
	}
	if g.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(g.prompts.load(domain.PromptRAGUser), BuildRAGContext(docs), strings.TrimSpace(query))
	reply, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		SystemPrompt: g.prompts.load(domain.PromptRAGSystem),
		MaxTokens:    groundedMaxTokens,
		Temperature:  groundedTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate grounded answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// GenerateGeneric answers a general IT question with the assistant persona
// and the full conversation history.
func (g *AnswerGenerator) GenerateGeneric(
	ctx context.Context, query string, history []domain.ChatMessage,
) (string, error) {
	if g.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	messages := make([]domain.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if m.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: query})

	reply, err := g.llm.Chat(ctx, messages, driven.GenerateOptions{
		SystemPrompt: g.prompts.load(domain.PromptGenericSystem),
		MaxTokens:    genericMaxTokens,
		Temperature:  genericTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate generic answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
