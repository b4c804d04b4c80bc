package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure IntentRouter can use custom prompts.
var _ driven.PromptStoreAware = (*IntentRouter)(nil)

// Classification call parameters.
const (
	intentTemperature = 0.0
	intentMaxTokens   = 20
)

// IntentRouter classifies a user query into one of four intents with a
// single stateless completion call.
type IntentRouter struct {
	llm     driven.LLMService
	prompts promptLoader
	log     *logger.Logger
}

// NewIntentRouter creates an intent router.
func NewIntentRouter(llm driven.LLMService, log *logger.Logger) *IntentRouter {
	if log == nil {
		log = logger.Nop()
	}
	return &IntentRouter{llm: llm, log: log}
}

// SetPromptStore sets the prompt store for customisable prompts.
func (r *IntentRouter) SetPromptStore(store driven.PromptStore) {
	r.prompts.store = store
}

// Classify returns the intent of query. Empty queries are UNKNOWN without a
// model call; an unrecognised model reply is UNKNOWN. Transport errors are returned.
func (r *IntentRouter) Classify(ctx context.Context, query string) (domain.Intent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.IntentUnknown, nil
	}
	if r.llm == nil {
		return domain.IntentUnknown, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(r.prompts.load(domain.PromptIntentUser), query)
	reply, err := r.llm.Generate(ctx, prompt, driven.GenerateOptions{
		SystemPrompt: r.prompts.load(domain.PromptIntentSystem),
		MaxTokens:    intentMaxTokens,
		Temperature:  intentTemperature,
	})
	if err != nil {
		return domain.IntentUnknown, fmt.Errorf("classify intent: %w", err)
	}

	intent, ok := parseIntentLabel(reply)
	if !ok {
		r.log.Warn("intent classifier returned unexpected label; defaulting to UNKNOWN", "reply", reply)
	}
	return intent, nil
}

// parseIntentLabel matches the upper-cased reply against each label by prefix,
// so trailing punctuation such as "GENERIC." is tolerated.
func parseIntentLabel(reply string) (domain.Intent, bool) {
	label := strings.ToUpper(strings.TrimSpace(reply))
	for _, intent := range domain.AllIntents() {
		if strings.HasPrefix(label, intent.String()) {
			return intent, true
		}
	}
	return domain.IntentUnknown, false
}
