package driving

import (
	"context"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// FeedbackService records user verdicts on answered turns.
type FeedbackService interface {
	// Submit validates and attaches feedback to a persisted turn.
	Submit(ctx context.Context, fb domain.Feedback) error
}
