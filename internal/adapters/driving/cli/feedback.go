package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <record-id>",
	Short: "Rate an answer",
	Long: `Attach a thumbs-up or thumbs-down rating to a recorded answer.

The record ID is printed by 'helpdesk ask' and returned by the API as
conversation_record_id.

Examples:
  helpdesk feedback 3f2a... --rating up
  helpdesk feedback 3f2a... --rating down --reason outdated --notes "VPN client changed"`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needs: needsStorage},
	RunE:        runFeedback,
}

func init() {
	feedbackCmd.Flags().String("rating", "", "up or down")
	feedbackCmd.Flags().String("reason", "", "reason code")
	feedbackCmd.Flags().String("notes", "", "free-text notes")
	_ = feedbackCmd.MarkFlagRequired("rating")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if feedbackService == nil {
		return errors.New("feedback service not configured")
	}

	raw, _ := cmd.Flags().GetString("rating")
	rating, err := parseRating(raw)
	if err != nil {
		return err
	}
	reason, _ := cmd.Flags().GetString("reason")
	notes, _ := cmd.Flags().GetString("notes")

	err = feedbackService.Submit(cmd.Context(), domain.Feedback{
		RecordID:   args[0],
		Rating:     rating,
		ReasonCode: reason,
		Notes:      notes,
	})
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	cmd.Println("Feedback recorded.")
	return nil
}

// parseRating accepts the short forms as well as the stored values.
func parseRating(s string) (domain.Rating, error) {
	switch s {
	case "up", "+1", string(domain.RatingThumbsUp):
		return domain.RatingThumbsUp, nil
	case "down", "-1", string(domain.RatingThumbsDown):
		return domain.RatingThumbsDown, nil
	default:
		return "", fmt.Errorf("%w: rating %q (want up or down)", domain.ErrInvalidInput, s)
	}
}
