// Package tui provides an interactive terminal chat with the helpdesk.
// It is a driving adapter over the answer and feedback services.
package tui

import (
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Answer runs each chat turn.
	Answer driving.AnswerService

	// Feedback records ratings on answers. Optional.
	Feedback driving.FeedbackService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
