package domain

// AnswerType is the terminal outcome of one user turn.
type AnswerType int

// Known answer types.
const (
	// AnswerEscalationRequired hands the question to a human.
	// It is the zero value so an unset decision never reads as an answer.
	AnswerEscalationRequired AnswerType = iota

	// AnswerGeneric is a general-knowledge answer from the assistant persona.
	AnswerGeneric

	// AnswerRAG is an answer grounded in retrieved knowledge-base chunks.
	AnswerRAG

	// AnswerOffTopic is the fixed decline for non-IT questions.
	AnswerOffTopic
)

// String returns the wire label of the answer type.
func (a AnswerType) String() string {
	switch a {
	case AnswerGeneric:
		return "GENERIC"
	case AnswerRAG:
		return "RAG"
	case AnswerOffTopic:
		return "OFF_TOPIC"
	default:
		return "ESCALATION_REQUIRED"
	}
}

// Coarse confidence labels kept for older consumers.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Decision sources reported alongside an answer.
const (
	SourceGeneric  = "generic"
	SourceRAG      = "rag"
	SourceOffTopic = "off_topic"
	SourceUnknown  = "unknown"
)

// AnswerDecision is produced exactly once per user turn.
type AnswerDecision struct {
	// AnswerType is the terminal state the turn reached.
	AnswerType AnswerType

	// ResponseText is the text returned to the user.
	ResponseText string

	// ConfidenceScore is the 0–1 trust score, nil when no score applies.
	ConfidenceScore *float64

	// ConfidenceLabel is "high" iff the score met the threshold or the path was generic.
	ConfidenceLabel string

	// Sources are the retrieved documents backing a RAG answer.
	Sources []SourceDocument

	// RequiresEscalation is true when a human should take over.
	RequiresEscalation bool

	// Source names the path that produced the decision.
	Source string
}

// Score returns the confidence score or 0 when unset.
func (d AnswerDecision) Score() float64 {
	if d.ConfidenceScore == nil {
		return 0
	}
	return *d.ConfidenceScore
}

// ChatMessage is a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is one inbound user turn.
type ChatRequest struct {
	Message        string        `json:"message"`
	ConversationID string        `json:"conversation_id,omitempty"`
	History        []ChatMessage `json:"history,omitempty"`
}

// ChatResponse is the boundary view of an AnswerDecision.
type ChatResponse struct {
	Response             string           `json:"response"`
	ConversationID       string           `json:"conversation_id"`
	Confidence           string           `json:"confidence"`
	ConfidenceScore      *float64         `json:"confidence_score,omitempty"`
	Source               string           `json:"source"`
	AnswerType           string           `json:"answer_type"`
	Sources              []SourceDocument `json:"sources,omitempty"`
	RequiresEscalation   bool             `json:"requires_escalation"`
	ConversationRecordID string           `json:"conversation_record_id,omitempty"`
}

// ParseAnswerType parses a wire label. Unknown labels are escalations.
func ParseAnswerType(s string) AnswerType {
	for _, a := range []AnswerType{AnswerGeneric, AnswerRAG, AnswerOffTopic} {
		if s == a.String() {
			return a
		}
	}
	return AnswerEscalationRequired
}
