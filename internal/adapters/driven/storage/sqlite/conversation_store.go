package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// PersistTurn saves a turn and returns its record ID.
// A missing ID or CreatedAt is filled in.
func (s *conversationStore) PersistTurn(ctx context.Context, rec domain.TurnRecord) (string, error) {
	if rec.ConversationID == "" {
		return "", fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	sourceIDs := rec.SourceIDs
	if sourceIDs == nil {
		sourceIDs = []string{}
	}
	sourceJSON, err := json.Marshal(sourceIDs)
	if err != nil {
		return "", fmt.Errorf("marshalling source ids: %w", err)
	}

	var score interface{}
	if rec.ConfidenceScore != nil {
		score = *rec.ConfidenceScore
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, conversation_id, user_message, response, intent,
			answer_type, confidence_score, confidence_label, requires_escalation, source_ids, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ConversationID, rec.UserMessage, rec.Response, rec.Intent.String(),
		rec.AnswerType.String(), score, rec.ConfidenceLabel, boolToInt(rec.RequiresEscalation),
		string(sourceJSON), formatNullableTime(rec.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("saving conversation turn: %w", err)
	}

	return rec.ID, nil
}

// GetTurn retrieves a turn by record ID.
func (s *conversationStore) GetTurn(ctx context.Context, id string) (*domain.TurnRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, user_message, response, intent, answer_type,
			confidence_score, confidence_label, requires_escalation, source_ids, created_at
		FROM conversation_turns WHERE id = ?
	`, id)

	return scanTurn(row)
}

// ListTurns returns the turns of a conversation, oldest first.
func (s *conversationStore) ListTurns(ctx context.Context, conversationID string) ([]domain.TurnRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, conversation_id, user_message, response, intent, answer_type,
			confidence_score, confidence_label, requires_escalation, source_ids, created_at
		FROM conversation_turns WHERE conversation_id = ?
		ORDER BY created_at, rowid
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying conversation turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.TurnRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation turns: %w", err)
	}

	return turns, nil
}

// RecordFeedback attaches feedback to an existing turn.
func (s *conversationStore) RecordFeedback(ctx context.Context, fb domain.Feedback) error {
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM conversation_turns WHERE id = ?", fb.RecordID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: conversation record %s", domain.ErrNotFound, fb.RecordID)
	}
	if err != nil {
		return fmt.Errorf("looking up conversation record: %w", err)
	}

	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO feedback (record_id, rating, reason_code, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, fb.RecordID, string(fb.Rating), nullString(fb.ReasonCode), nullString(fb.Notes),
		formatNullableTime(fb.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving feedback: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTurn scans a single conversation turn.
func scanTurn(row rowScanner) (*domain.TurnRecord, error) {
	var (
		rec        domain.TurnRecord
		intent     string
		answerType string
		score      sql.NullFloat64
		escalation int
		sourceJSON string
		createdAt  sql.NullString
	)

	err := row.Scan(&rec.ID, &rec.ConversationID, &rec.UserMessage, &rec.Response, &intent,
		&answerType, &score, &rec.ConfidenceLabel, &escalation, &sourceJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation turn: %w", err)
	}

	if parsed, err := domain.ParseIntent(intent); err == nil {
		rec.Intent = parsed
	}
	rec.AnswerType = domain.ParseAnswerType(answerType)
	if score.Valid {
		v := score.Float64
		rec.ConfidenceScore = &v
	}
	rec.RequiresEscalation = escalation == 1
	rec.CreatedAt = parseNullableTime(createdAt)

	if s := strings.TrimSpace(sourceJSON); s != "" {
		if err := json.Unmarshal([]byte(s), &rec.SourceIDs); err != nil {
			return nil, fmt.Errorf("unmarshalling source ids: %w", err)
		}
	}

	return &rec, nil
}
