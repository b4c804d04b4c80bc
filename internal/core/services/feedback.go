package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
)

// Ensure FeedbackService implements the interface.
var _ driving.FeedbackService = (*FeedbackService)(nil)

// maxFeedbackNotes bounds free-text notes stored with feedback.
const maxFeedbackNotes = 2000

// FeedbackService validates user ratings and attaches them to recorded turns.
type FeedbackService struct {
	store driven.ConversationStore
	now   func() time.Time
}

// NewFeedbackService creates a feedback service.
func NewFeedbackService(store driven.ConversationStore) *FeedbackService {
	return &FeedbackService{store: store, now: time.Now}
}

// Submit records feedback for an existing turn.
func (s *FeedbackService) Submit(ctx context.Context, fb domain.Feedback) error {
	if s.store == nil {
		return fmt.Errorf("%w: conversation store not configured", domain.ErrNotFound)
	}
	fb.RecordID = strings.TrimSpace(fb.RecordID)
	if fb.RecordID == "" {
		return fmt.Errorf("%w: conversation record id is required", domain.ErrInvalidInput)
	}
	if !fb.Rating.IsValid() {
		return fmt.Errorf("%w: rating must be %q or %q", domain.ErrInvalidInput,
			domain.RatingThumbsUp, domain.RatingThumbsDown)
	}
	fb.Notes = truncate(strings.TrimSpace(fb.Notes), maxFeedbackNotes)
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = s.now().UTC()
	}

	if err := s.store.RecordFeedback(ctx, fb); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}
