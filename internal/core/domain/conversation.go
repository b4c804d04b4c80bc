package domain

import "time"

// TurnRecord is the persisted form of one answered turn.
// It is written at most once per turn, after the decision is final.
type TurnRecord struct {
	ID                 string
	ConversationID     string
	UserMessage        string
	Response           string
	Intent             Intent
	AnswerType         AnswerType
	ConfidenceScore    *float64
	ConfidenceLabel    string
	RequiresEscalation bool
	SourceIDs          []string
	CreatedAt          time.Time
}

// Rating is a user's verdict on an answer.
type Rating string

// Known ratings.
const (
	RatingThumbsUp   Rating = "thumbs_up"
	RatingThumbsDown Rating = "thumbs_down"
)

// IsValid returns true if the rating is recognised.
func (r Rating) IsValid() bool {
	return r == RatingThumbsUp || r == RatingThumbsDown
}

// Feedback attaches a rating to a persisted turn.
type Feedback struct {
	RecordID   string    `json:"conversation_record_id"`
	Rating     Rating    `json:"rating"`
	ReasonCode string    `json:"reason_code,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
