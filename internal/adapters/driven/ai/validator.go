package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// Check is the outcome of probing one configured AI provider.
type Check struct {
	Component string
	Provider  domain.AIProvider
	Model     string
	Err       error
}

// OK reports whether the provider answered.
func (c Check) OK() bool {
	return c.Err == nil
}

// String formats the check for terminal output.
func (c Check) String() string {
	if c.Err != nil {
		return fmt.Sprintf("%-9s %s (%s): FAILED: %v", c.Component, c.Provider, c.Model, c.Err)
	}
	return fmt.Sprintf("%-9s %s (%s): ok", c.Component, c.Provider, c.Model)
}

// Validate creates and pings the LLM and embedding services described by
// settings. Unconfigured providers are reported as errors.
func Validate(ctx context.Context, settings *domain.Settings) []Check {
	llm := Check{Component: "llm", Provider: settings.LLM.Provider, Model: settings.LLM.Model}
	if !settings.LLM.IsConfigured() {
		llm.Err = domain.ErrLLMUnavailable
	} else if svc, err := CreateAndValidateLLMService(ctx, &settings.LLM); err != nil {
		llm.Err = err
	} else {
		_ = svc.Close()
	}

	embed := Check{Component: "embedding", Provider: settings.Embedding.Provider, Model: settings.Embedding.Model}
	if !settings.Embedding.IsConfigured() {
		embed.Err = domain.ErrEmbeddingUnavailable
	} else if svc, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding); err != nil {
		embed.Err = err
	} else {
		_ = svc.Close()
	}

	return []Check{llm, embed}
}
