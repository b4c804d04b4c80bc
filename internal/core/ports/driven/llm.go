// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// LLMService is a chat-completion backend (OpenAI, Azure OpenAI, Anthropic,
// Gemini or Ollama). Callers pass their own system prompt and sampling
// parameters on every call; adapters hold no prompt state.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []domain.ChatMessage, opts GenerateOptions) (string, error)

	ModelName() string

	// Ping checks reachability without a full completion where the provider allows it.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions configures one completion.
type GenerateOptions struct {
	// SystemPrompt is sent ahead of the conversation. Empty means none.
	SystemPrompt string

	// MaxTokens caps the reply. Zero leaves the provider default.
	MaxTokens int

	// Temperature is sent as given, so zero means deterministic.
	Temperature float64
}
