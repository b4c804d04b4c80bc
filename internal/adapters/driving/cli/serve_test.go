package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_StopsOnCancel(t *testing.T) {
	setupTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(ctx, "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "HTTP API listening on 127.0.0.1:0")
}

func TestServeCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	answerService = nil

	_, err := execute(context.Background(), "serve")

	assert.EqualError(t, err, "answer service not configured")
}

func TestMCPServeCmd_RequiresSearch(t *testing.T) {
	setupTestServices(t)

	_, err := execute(context.Background(), "mcp", "serve")

	assert.Error(t, err)
}

func TestMCPServeCmd_Flags(t *testing.T) {
	f := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, f)
	assert.Equal(t, "0", f.DefValue)
	assert.Equal(t, "p", f.Shorthand)
}
