package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

func float(v float64) *float64 { return &v }

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "helpdesk.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestOpen_CustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "turns.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)
}

func TestNewStore_MigrationsRecorded(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	id, err := first.ConversationStore().PersistTurn(context.Background(), domain.TurnRecord{
		ConversationID: "c1", UserMessage: "hi", Response: "hello",
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	rec, err := second.ConversationStore().GetTurn(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Response)
}

// ==================== Conversation Store Tests ====================

func TestConversationStore_PersistAndGet(t *testing.T) {
	ctx := context.Background()
	cs := setupTestStore(t).ConversationStore()
	created := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)

	id, err := cs.PersistTurn(ctx, domain.TurnRecord{
		ConversationID:     "conv-1",
		UserMessage:        "How do I reset my VPN password?",
		Response:           "Open the portal.",
		Intent:             domain.IntentCavcoSpecific,
		AnswerType:         domain.AnswerRAG,
		ConfidenceScore:    float(0.82),
		ConfidenceLabel:    domain.ConfidenceHigh,
		RequiresEscalation: false,
		SourceIDs:          []string{"101", "102"},
		CreatedAt:          created,
	})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	rec, err := cs.GetTurn(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "conv-1", rec.ConversationID)
	assert.Equal(t, "How do I reset my VPN password?", rec.UserMessage)
	assert.Equal(t, "Open the portal.", rec.Response)
	assert.Equal(t, domain.IntentCavcoSpecific, rec.Intent)
	assert.Equal(t, domain.AnswerRAG, rec.AnswerType)
	require.NotNil(t, rec.ConfidenceScore)
	assert.InDelta(t, 0.82, *rec.ConfidenceScore, 1e-9)
	assert.Equal(t, domain.ConfidenceHigh, rec.ConfidenceLabel)
	assert.False(t, rec.RequiresEscalation)
	assert.Equal(t, []string{"101", "102"}, rec.SourceIDs)
	assert.True(t, created.Equal(rec.CreatedAt))
}

func TestConversationStore_NilScoreAndDefaults(t *testing.T) {
	ctx := context.Background()
	cs := setupTestStore(t).ConversationStore()

	id, err := cs.PersistTurn(ctx, domain.TurnRecord{
		ConversationID:     "conv-2",
		UserMessage:        "banana",
		Response:           "Please create a ticket.",
		RequiresEscalation: true,
	})
	require.NoError(t, err)

	rec, err := cs.GetTurn(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec.ConfidenceScore)
	assert.Equal(t, domain.IntentUnknown, rec.Intent)
	assert.Equal(t, domain.AnswerEscalationRequired, rec.AnswerType)
	assert.True(t, rec.RequiresEscalation)
	assert.Empty(t, rec.SourceIDs)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestConversationStore_KeepsProvidedID(t *testing.T) {
	cs := setupTestStore(t).ConversationStore()

	id, err := cs.PersistTurn(context.Background(), domain.TurnRecord{ID: "fixed", ConversationID: "c"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", id)
}

func TestConversationStore_RequiresConversationID(t *testing.T) {
	cs := setupTestStore(t).ConversationStore()

	_, err := cs.PersistTurn(context.Background(), domain.TurnRecord{UserMessage: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConversationStore_GetTurnNotFound(t *testing.T) {
	cs := setupTestStore(t).ConversationStore()

	rec, err := cs.GetTurn(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, rec)
}

func TestConversationStore_ListTurnsOldestFirst(t *testing.T) {
	ctx := context.Background()
	cs := setupTestStore(t).ConversationStore()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, msg := range []string{"third", "first", "second"} {
		offsets := []time.Duration{2 * time.Second, 0, time.Second}
		_, err := cs.PersistTurn(ctx, domain.TurnRecord{
			ConversationID: "conv",
			UserMessage:    msg,
			CreatedAt:      base.Add(offsets[i]),
		})
		require.NoError(t, err)
	}
	_, err := cs.PersistTurn(ctx, domain.TurnRecord{ConversationID: "other", UserMessage: "x"})
	require.NoError(t, err)

	turns, err := cs.ListTurns(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[0].UserMessage)
	assert.Equal(t, "second", turns[1].UserMessage)
	assert.Equal(t, "third", turns[2].UserMessage)

	none, err := cs.ListTurns(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConversationStore_RecordFeedback(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	cs := store.ConversationStore()

	id, err := cs.PersistTurn(ctx, domain.TurnRecord{ConversationID: "c", UserMessage: "q", Response: "a"})
	require.NoError(t, err)

	require.NoError(t, cs.RecordFeedback(ctx, domain.Feedback{
		RecordID:   id,
		Rating:     domain.RatingThumbsDown,
		ReasonCode: "incorrect",
		Notes:      "Steps are outdated.",
	}))

	var rating, reason, notes string
	require.NoError(t, store.db.QueryRow(
		"SELECT rating, reason_code, notes FROM feedback WHERE record_id = ?", id,
	).Scan(&rating, &reason, &notes))
	assert.Equal(t, "thumbs_down", rating)
	assert.Equal(t, "incorrect", reason)
	assert.Equal(t, "Steps are outdated.", notes)
}

func TestConversationStore_RecordFeedbackUnknownRecord(t *testing.T) {
	cs := setupTestStore(t).ConversationStore()

	err := cs.RecordFeedback(context.Background(), domain.Feedback{RecordID: "nope", Rating: domain.RatingThumbsUp})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Ingest Run Store Tests ====================

func TestIngestRunStore_SaveAndLastRun(t *testing.T) {
	ctx := context.Background()
	rs := setupTestStore(t).IngestRunStore()
	start := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, rs.SaveRun(ctx, domain.IngestStats{
		RunID: "old", CollectionKey: "IT", PagesFetched: 1,
		StartedAt: start, FinishedAt: start.Add(time.Minute),
	}))
	require.NoError(t, rs.SaveRun(ctx, domain.IngestStats{
		RunID: "new", CollectionKey: "IT", PagesFetched: 12, SectionsExtracted: 40, ChunksCreated: 55,
		EmbeddingsGenerated: 55, DocumentsUploaded: 50, Errors: []string{"upload: boom"},
		StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour + 2*time.Minute),
	}))
	require.NoError(t, rs.SaveRun(ctx, domain.IngestStats{
		RunID: "other", CollectionKey: "HR", StartedAt: start.Add(2 * time.Hour),
	}))

	last, err := rs.LastRun(ctx, "IT")
	require.NoError(t, err)
	assert.Equal(t, "new", last.RunID)
	assert.Equal(t, 12, last.PagesFetched)
	assert.Equal(t, 40, last.SectionsExtracted)
	assert.Equal(t, 55, last.ChunksCreated)
	assert.Equal(t, 55, last.EmbeddingsGenerated)
	assert.Equal(t, 50, last.DocumentsUploaded)
	assert.Equal(t, []string{"upload: boom"}, last.Errors)
	assert.True(t, last.Failed())
	assert.Equal(t, 2*time.Minute, last.Duration())
}

func TestIngestRunStore_SaveRunReplacesByID(t *testing.T) {
	ctx := context.Background()
	rs := setupTestStore(t).IngestRunStore()
	start := time.Now().UTC()

	require.NoError(t, rs.SaveRun(ctx, domain.IngestStats{RunID: "r", CollectionKey: "IT", StartedAt: start}))
	require.NoError(t, rs.SaveRun(ctx, domain.IngestStats{
		RunID: "r", CollectionKey: "IT", DocumentsUploaded: 9, StartedAt: start, FinishedAt: start.Add(time.Second),
	}))

	last, err := rs.LastRun(ctx, "IT")
	require.NoError(t, err)
	assert.Equal(t, 9, last.DocumentsUploaded)
	assert.Nil(t, last.Errors)
	assert.False(t, last.Failed())
}

func TestIngestRunStore_LastRunNotFound(t *testing.T) {
	rs := setupTestStore(t).IngestRunStore()

	_, err := rs.LastRun(context.Background(), "none")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestRunStore_GeneratesRunID(t *testing.T) {
	ctx := context.Background()
	rs := setupTestStore(t).IngestRunStore()

	require.NoError(t, rs.SaveRun(ctx, domain.IngestStats{CollectionKey: "IT"}))

	last, err := rs.LastRun(ctx, "IT")
	require.NoError(t, err)
	assert.Len(t, last.RunID, 36)
	assert.False(t, last.StartedAt.IsZero())
	assert.True(t, last.FinishedAt.IsZero())
}
