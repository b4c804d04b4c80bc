package services

import "github.com/custodia-labs/helpdesk/internal/core/domain"

// Fixed confidence scores assigned by the decision table.
const (
	GenericConfidence = 0.9
	noConfidence      = 0.0
)

// NoEvidenceMessage is returned when retrieval finds nothing for a
// knowledge-base question.
const NoEvidenceMessage = "I couldn't find relevant information in the knowledge base. " +
	"This issue may require creating a support ticket."

// DecisionInput is everything the decision table needs about one turn.
// Fields that a path never reaches are ignored.
type DecisionInput struct {
	Intent domain.Intent

	// SearchConfigured is false when no search index or embedder is wired.
	SearchConfigured bool

	// GenericAnswer is the persona completion for GENERIC turns.
	GenericAnswer string

	// Docs are the retrieved documents for CAVCO_SPECIFIC turns.
	Docs []domain.SourceDocument

	// GroundedAnswer and Score are the generation and gate results; only
	// read when Docs is non-empty.
	GroundedAnswer string
	Score          float64

	Threshold         float64
	EscalationMessage string
	OffTopicMessage   string
}

// Decide maps one turn's intent and evidence to exactly one AnswerDecision.
// It performs no I/O.
func Decide(in DecisionInput) domain.AnswerDecision {
	switch in.Intent {
	case domain.IntentGeneric:
		return decision(in, domain.AnswerGeneric, in.GenericAnswer, GenericConfidence, nil, domain.SourceGeneric)

	case domain.IntentOffTopic:
		return decision(in, domain.AnswerOffTopic, in.OffTopicMessage, noConfidence, nil, domain.SourceOffTopic)

	case domain.IntentUnknown:
		return decision(in, domain.AnswerEscalationRequired, in.EscalationMessage, noConfidence, nil, domain.SourceUnknown)

	case domain.IntentCavcoSpecific:
		switch {
		case !in.SearchConfigured:
			return decision(in, domain.AnswerEscalationRequired, in.EscalationMessage, noConfidence, nil, domain.SourceRAG)
		case len(in.Docs) == 0:
			return decision(in, domain.AnswerEscalationRequired, NoEvidenceMessage, noConfidence, nil, domain.SourceRAG)
		case Gated(in.Score, in.Threshold):
			return decision(in, domain.AnswerEscalationRequired, in.EscalationMessage, in.Score, in.Docs, domain.SourceRAG)
		default:
			return decision(in, domain.AnswerRAG, in.GroundedAnswer, in.Score, in.Docs, domain.SourceRAG)
		}
	}

	// Unreachable for the closed set of intents.
	return decision(in, domain.AnswerEscalationRequired, in.EscalationMessage, noConfidence, nil, domain.SourceUnknown)
}

func decision(
	in DecisionInput,
	answerType domain.AnswerType,
	text string,
	score float64,
	sources []domain.SourceDocument,
	source string,
) domain.AnswerDecision {
	label := domain.ConfidenceLow
	if answerType == domain.AnswerGeneric || score >= in.Threshold {
		label = domain.ConfidenceHigh
	}
	if sources == nil {
		sources = []domain.SourceDocument{}
	}
	return domain.AnswerDecision{
		AnswerType:         answerType,
		ResponseText:       text,
		ConfidenceScore:    &score,
		ConfidenceLabel:    label,
		Sources:            sources,
		RequiresEscalation: answerType == domain.AnswerEscalationRequired,
		Source:             source,
	}
}
