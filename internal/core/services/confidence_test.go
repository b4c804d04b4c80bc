package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

const longAnswer = "To reset the Cavco VPN, open the client, choose Settings, then click Reset Profile."

func TestScoreHeuristic(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		sources int
		want    float64
	}{
		{"base with no sources", longAnswer, 0, 0.5},
		{"one source", longAnswer, 1, 0.54},
		{"five sources", longAnswer, 5, 0.7},
		{"sources capped at five", longAnswer, 12, 0.7},
		{"short answer", "Restart it.", 5, 0.5},
		{"fallback phrase", "I couldn't find that in the knowledge base. Please open a ticket with IT.", 5, 0.5},
		{"short and fallback", "I don't have that.", 0, 0.1},
		{"phrase case insensitive", strings.ToUpper(longAnswer) + " NOT IN THE KNOWLEDGE BASE", 0, 0.3},
		{"whitespace only counts as short", "   " + strings.Repeat(" ", 60), 0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreHeuristic(tt.answer, tt.sources), 1e-9)
		})
	}
}

func TestScoreHeuristic_Bounded(t *testing.T) {
	for n := 0; n < 10; n++ {
		for _, a := range []string{"", "x", longAnswer, "couldn't find; don't have; create a support ticket"} {
			s := ScoreHeuristic(a, n)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestConfidenceGate_ScoreLLM(t *testing.T) {
	tests := []struct {
		reply string
		want  float64
	}{
		{"0.85", 0.85},
		{"0.85.", 0.85},
		{".7", 0.7},
		{"Score: 0.4", 0.4},
		{"0", 0},
		{"7/10", 0},
		{"3 out of 10", 0},
		{"Rating: 2/10", 0},
		{"10", 0},
		{"high", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			gate := NewConfidenceGate(&mockLLM{scoreReply: tt.reply}, true, nil)

			score, err := gate.ScoreLLM(context.Background(), "q", longAnswer)

			require.NoError(t, err)
			assert.InDelta(t, tt.want, score, 1e-9)
		})
	}
}

func TestConfidenceGate_RatingsOutOfTenAreGated(t *testing.T) {
	for _, reply := range []string{"7/10", "3 out of 10", "10", "9"} {
		gate := NewConfidenceGate(&mockLLM{scoreReply: reply}, true, nil)

		score, err := gate.ScoreLLM(context.Background(), "q", longAnswer)

		require.NoError(t, err)
		assert.True(t, Gated(score, domain.DefaultSettings().Answer.ConfidenceThreshold), "reply %q", reply)
	}
}

func TestConfidenceGate_ScoreLLM_EmptyAnswerSkipsModel(t *testing.T) {
	llm := &mockLLM{scoreReply: "0.9"}
	gate := NewConfidenceGate(llm, true, nil)

	score, err := gate.ScoreLLM(context.Background(), "q", "  ")

	require.NoError(t, err)
	assert.Zero(t, score)
	assert.Zero(t, llm.totalCalls())
}

func TestConfidenceGate_ScoreLLM_CallParameters(t *testing.T) {
	llm := &mockLLM{scoreReply: "0.9"}
	gate := NewConfidenceGate(llm, true, nil)

	_, err := gate.ScoreLLM(context.Background(), "How do I reset VPN?", longAnswer)
	require.NoError(t, err)

	require.Len(t, llm.generateCalls, 1)
	call := llm.generateCalls[0]
	assert.Equal(t, 0.0, call.opts.Temperature)
	assert.Equal(t, 10, call.opts.MaxTokens)
	assert.Contains(t, call.prompt, "Question: How do I reset VPN?")
	assert.Contains(t, call.prompt, "Answer: "+longAnswer)
}

func TestConfidenceGate_Score_FallsBackOnError(t *testing.T) {
	llm := &mockLLM{scoreErr: errors.New("timeout")}
	gate := NewConfidenceGate(llm, true, nil)

	score := gate.Score(context.Background(), "q", longAnswer, 5)

	assert.InDelta(t, 0.7, score, 1e-9)
	assert.Equal(t, 1, llm.callsWith(domain.PromptConfidenceSystem))
}

func TestConfidenceGate_Score_HeuristicWhenDisabled(t *testing.T) {
	llm := &mockLLM{scoreReply: "0.95"}
	gate := NewConfidenceGate(llm, false, nil)

	score := gate.Score(context.Background(), "q", longAnswer, 5)

	assert.InDelta(t, 0.7, score, 1e-9)
	assert.Zero(t, llm.totalCalls())
}

func TestConfidenceGate_Score_PrefersModel(t *testing.T) {
	gate := NewConfidenceGate(&mockLLM{scoreReply: "0.95"}, true, nil)

	score := gate.Score(context.Background(), "q", longAnswer, 0)

	assert.InDelta(t, 0.95, score, 1e-9)
}

func TestGated(t *testing.T) {
	const threshold = 0.65
	assert.True(t, Gated(threshold-0.01, threshold))
	assert.False(t, Gated(threshold, threshold))
	assert.False(t, Gated(threshold+0.01, threshold))
}
