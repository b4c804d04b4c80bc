package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DebugOnlyWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Output: &buf})
	require.NoError(t, err)
	assert.False(t, log.IsVerbose())

	log.Debug("hidden")
	log.Section("Hidden Section")
	assert.Empty(t, buf.String())

	log.Info("shown", "k", "v")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Output: &buf, Verbose: true})
	require.NoError(t, err)
	assert.True(t, log.IsVerbose())

	log.Section("Answer Pipeline")
	assert.Contains(t, buf.String(), "=== Answer Pipeline ===")
	assert.Contains(t, buf.String(), "DEBUG:")
}

func TestNew_FileSinkWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "helpdesk.jsonl")

	log, err := New(Options{Output: &buf, File: path})
	require.NoError(t, err)

	log.Warn("turn persisted failed", "err", errors.New("disk full"))
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "turn persisted failed", rec["msg"])
	assert.Equal(t, "disk full", rec["err"])
	assert.Contains(t, buf.String(), "disk full")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("nothing")
	log.Section("nothing")
	assert.NoError(t, log.Close())
}

func TestWith_CarriesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Output: &buf})
	require.NoError(t, err)

	log.With("component", "ingest").Info("started")
	assert.Contains(t, buf.String(), `"component":"ingest"`)
}

func TestPrettyHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("writes level message and attrs", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}})

		record := slog.NewRecord(time.Now(), slog.LevelDebug, "debug message", 0)
		record.AddAttrs(slog.String("key", "value"))

		require.NoError(t, h.Handle(ctx, record))
		out := buf.String()
		assert.Contains(t, out, "DEBUG:")
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, `"key":"value"`)
	})

	t.Run("respects level", func(t *testing.T) {
		h := NewPrettyHandler(&bytes.Buffer{}, PrettyHandlerOptions{})
		assert.False(t, h.Enabled(ctx, slog.LevelDebug))
		assert.True(t, h.Enabled(ctx, slog.LevelError))
	})

	t.Run("group prefixes keys", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, PrettyHandlerOptions{}).WithGroup("turn")

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "answered", 0)
		record.AddAttrs(slog.Int("sources", 3))

		require.NoError(t, h.Handle(ctx, record))
		assert.Contains(t, buf.String(), `"turn.sources":3`)
	})
}
