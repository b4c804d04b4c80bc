// Package ollama provides an LLM service adapter using Ollama's chat API.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/ollamahttp"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = ollamahttp.DefaultBaseURL
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService answers prompts with a local Ollama model.
type LLMService struct {
	client *ollamahttp.Client
	model  string
}

// options holds generation parameters. Temperature is always sent so that
// zero overrides the model's default.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client: ollamahttp.New(cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}
}

// Generate produces a completion of a single user prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.Chat(ctx, []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}}, opts)
}

// Chat conducts a multi-turn conversation. The system prompt, when set,
// leads the message list.
func (s *LLMService) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.GenerateOptions) (string, error) {
	msgs := make([]chatMessage, 0, len(messages)+1)
	if opts.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: domain.RoleSystem, Content: opts.SystemPrompt})
	}
	for _, m := range messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	temperature := opts.Temperature
	req := chatRequest{
		Model:    s.model,
		Messages: msgs,
		Options:  &options{NumPredict: opts.MaxTokens, Temperature: &temperature},
	}

	var resp chatResponse
	if err := s.client.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", resp.Error)
	}
	return resp.Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the server is up and the model has been pulled, without
// running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.client.CheckModel(ctx, s.model)
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
