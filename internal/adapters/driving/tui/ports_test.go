package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (*Ports)(nil).Validate(), ErrMissingAnswerService)
	assert.ErrorIs(t, (&Ports{Feedback: &mockFeedback{}}).Validate(), ErrMissingAnswerService)
	assert.NoError(t, (&Ports{Answer: &mockAnswer{}}).Validate())
}
