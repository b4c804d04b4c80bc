package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func TestAnswerGenerator_Generate_NoDocsSkipsModel(t *testing.T) {
	llm := &mockLLM{answerReply: "made up"}
	gen := NewAnswerGenerator(llm)

	answer, err := gen.Generate(context.Background(), "How do I reset VPN?", nil)

	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, answer)
	assert.Zero(t, llm.totalCalls())
}

func TestAnswerGenerator_Generate_Grounded(t *testing.T) {
	llm := &mockLLM{answerReply: "  1. Open the client.\n2. Click Reset.  "}
	gen := NewAnswerGenerator(llm)

	answer, err := gen.Generate(context.Background(), "How do I reset VPN?", docs(2))

	require.NoError(t, err)
	assert.Equal(t, "1. Open the client.\n2. Click Reset.", answer)
	require.Len(t, llm.generateCalls, 1)
	call := llm.generateCalls[0]
	assert.Equal(t, 0.3, call.opts.Temperature)
	assert.Equal(t, 500, call.opts.MaxTokens)
	assert.Equal(t, defaultPrompt(domain.PromptRAGSystem), call.opts.SystemPrompt)
	assert.Contains(t, call.prompt, "--- Document 1: VPN Guide [Reset] ---")
	assert.Contains(t, call.prompt, "User question: How do I reset VPN?")
}

func TestAnswerGenerator_Generate_Error(t *testing.T) {
	boom := errors.New("503")
	gen := NewAnswerGenerator(&mockLLM{answerErr: boom})

	_, err := gen.Generate(context.Background(), "q", docs(1))

	require.ErrorIs(t, err, boom)
}

func TestAnswerGenerator_GenerateGeneric_SendsHistory(t *testing.T) {
	llm := &mockLLM{genericReply: "A VPN is a private tunnel."}
	gen := NewAnswerGenerator(llm)
	history := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "ignored"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}

	answer, err := gen.GenerateGeneric(context.Background(), "What is VPN?", history)

	require.NoError(t, err)
	assert.Equal(t, "A VPN is a private tunnel.", answer)
	require.Len(t, llm.chatCalls, 1)
	call := llm.chatCalls[0]
	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "What is VPN?"},
	}, call.messages)
	assert.Equal(t, 0.7, call.opts.Temperature)
	assert.Equal(t, 500, call.opts.MaxTokens)
	assert.Equal(t, defaultPrompt(domain.PromptGenericSystem), call.opts.SystemPrompt)
}
