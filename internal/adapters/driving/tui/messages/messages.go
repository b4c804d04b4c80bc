// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// AnswerReceived carries the result of one chat turn back to the model.
type AnswerReceived struct {
	Question string
	Response *domain.ChatResponse
	Err      error
}

// FeedbackSubmitted reports the outcome of rating an answer.
type FeedbackSubmitted struct {
	RecordID string
	Rating   domain.Rating
	Err      error
}

// ErrorOccurred is sent when an error needs to be displayed.
type ErrorOccurred struct {
	Err error
}
