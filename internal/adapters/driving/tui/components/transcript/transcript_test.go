package transcript

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func response(record string) *domain.ChatResponse {
	score := 0.4
	return &domain.ChatResponse{
		Response:             "Please open a ticket.",
		ConversationID:       "c1",
		Confidence:           domain.ConfidenceLow,
		ConfidenceScore:      &score,
		RequiresEscalation:   true,
		ConversationRecordID: record,
		Sources: []domain.SourceDocument{
			{Title: "Printers", SectionTitle: "Floor 3", URL: "https://wiki/printers"},
		},
	}
}

func TestNew_EmptyPlaceholder(t *testing.T) {
	tr := New(nil)

	assert.Contains(t, tr.View(), "Ask a question")
	assert.Empty(t, tr.Turns())
	assert.Empty(t, tr.LastRecordID())
}

func TestAskAndResolve(t *testing.T) {
	tr := New(nil)
	tr.SetSize(100, 30)

	tr.Ask("printer offline")
	require.Len(t, tr.Turns(), 1)
	assert.True(t, tr.Turns()[0].Pending())
	assert.Contains(t, tr.View(), "thinking")

	tr.Resolve(response("r1"), nil)

	turn := tr.Turns()[0]
	assert.False(t, turn.Pending())
	view := tr.View()
	assert.Contains(t, view, "Please open a ticket.")
	assert.Contains(t, view, "confidence low (0.40)")
	assert.Contains(t, view, "escalated to IT")
	assert.Contains(t, view, "[1] Printers > Floor 3 https://wiki/printers")
	assert.Equal(t, "r1", tr.LastRecordID())
}

func TestResolve_Error(t *testing.T) {
	tr := New(nil)
	tr.Ask("vpn")

	tr.Resolve(nil, errors.New("timeout"))

	assert.Contains(t, tr.View(), "Error: timeout")
	assert.Empty(t, tr.LastRecordID())
	assert.Empty(t, tr.History())
}

func TestResolve_WithoutPendingTurnIsIgnored(t *testing.T) {
	tr := New(nil)

	tr.Resolve(response("r1"), nil)

	assert.Empty(t, tr.Turns())
}

func TestHistory_SkipsFailedTurns(t *testing.T) {
	tr := New(nil)
	tr.Ask("one")
	tr.Resolve(response("r1"), nil)
	tr.Ask("two")
	tr.Resolve(nil, errors.New("x"))

	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleAssistant, Content: "Please open a ticket."},
	}, tr.History())
	assert.Equal(t, "r1", tr.LastRecordID())
}

func TestRate(t *testing.T) {
	tr := New(nil)
	tr.SetSize(100, 30)
	tr.Ask("one")
	tr.Resolve(response("r1"), nil)

	tr.Rate("r1", domain.RatingThumbsUp)

	assert.Equal(t, domain.RatingThumbsUp, tr.Turns()[0].Rating)
	assert.Contains(t, tr.View(), "rated helpful")
}

func TestClear(t *testing.T) {
	tr := New(nil)
	tr.Ask("one")

	tr.Clear()

	assert.Empty(t, tr.Turns())
	assert.Contains(t, tr.View(), "Ask a question")
}

func TestSetSize_ClampsHeight(t *testing.T) {
	tr := New(nil)

	tr.SetSize(40, -3)

	assert.Equal(t, 1, tr.viewport.Height)
	assert.Equal(t, 40, tr.viewport.Width)
}
