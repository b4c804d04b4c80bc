package domain

import (
	"fmt"
	"strings"
)

// Intent is the routing class of a user query.
// It is a closed set: every switch over Intent handles all four values.
type Intent int

// Known intents. The zero value is IntentUnknown so an unset intent is
// always the safe default.
const (
	// IntentUnknown means the query could not be classified confidently.
	IntentUnknown Intent = iota

	// IntentGeneric is general IT knowledge answerable without the knowledge base.
	IntentGeneric

	// IntentCavcoSpecific needs company-internal knowledge from the knowledge base.
	IntentCavcoSpecific

	// IntentOffTopic is unrelated to IT support.
	IntentOffTopic
)

// String returns the wire label of the intent.
func (i Intent) String() string {
	switch i {
	case IntentGeneric:
		return "GENERIC"
	case IntentCavcoSpecific:
		return "CAVCO_SPECIFIC"
	case IntentOffTopic:
		return "OFF_TOPIC"
	default:
		return "UNKNOWN"
	}
}

// AllIntents returns every intent in classifier match order.
func AllIntents() []Intent {
	return []Intent{IntentGeneric, IntentCavcoSpecific, IntentOffTopic, IntentUnknown}
}

// ParseIntent parses a wire label case-insensitively.
func ParseIntent(s string) (Intent, error) {
	label := strings.ToUpper(strings.TrimSpace(s))
	for _, i := range AllIntents() {
		if label == i.String() {
			return i, nil
		}
	}
	return IntentUnknown, fmt.Errorf("%w: intent %q", ErrInvalidInput, s)
}
