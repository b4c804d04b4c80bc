package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure AnswerPipeline implements the interface.
var _ driving.AnswerService = (*AnswerPipeline)(nil)

// maxLoggedQuery bounds the user query echoed into log records.
const maxLoggedQuery = 200

// AnswerPipeline orchestrates one user turn: classify, answer or retrieve,
// score, decide, and record.
type AnswerPipeline struct {
	router    *IntentRouter
	retriever *Retriever
	generator *AnswerGenerator
	gate      *ConfidenceGate
	store     driven.ConversationStore
	settings  domain.AnswerSettings
	timeouts  Timeouts
	log       *logger.Logger
	now       func() time.Time
}

// Timeouts bound each downstream call. Zero means no timeout.
type Timeouts struct {
	LLM    time.Duration
	Search time.Duration
}

// AnswerPipelineDeps groups the collaborators of an AnswerPipeline.
// Retriever and Store are optional.
type AnswerPipelineDeps struct {
	Router    *IntentRouter
	Retriever *Retriever
	Generator *AnswerGenerator
	Gate      *ConfidenceGate
	Store     driven.ConversationStore
	Settings  domain.AnswerSettings
	Timeouts  Timeouts
	Logger    *logger.Logger
}

// NewAnswerPipeline creates an answer pipeline.
func NewAnswerPipeline(deps AnswerPipelineDeps) *AnswerPipeline {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	settings := deps.Settings
	if settings.EscalationMessage == "" {
		settings.EscalationMessage = domain.DefaultEscalationMessage
	}
	if settings.OffTopicMessage == "" {
		settings.OffTopicMessage = domain.DefaultOffTopicMessage
	}
	return &AnswerPipeline{
		router:    deps.Router,
		retriever: deps.Retriever,
		generator: deps.Generator,
		gate:      deps.Gate,
		store:     deps.Store,
		settings:  settings,
		timeouts:  deps.Timeouts,
		log:       log,
		now:       time.Now,
	}
}

// Answer runs one turn. An empty message classifies as unknown and escalates.
// Errors from classification, retrieval, or generation fail the turn; a
// persistence failure only logs a warning.
func (p *AnswerPipeline) Answer(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)

	cid := req.ConversationID
	if cid == "" {
		cid = uuid.New().String()
	}
	log := p.log.With("conversation_id", cid)
	log.Section("Answer")

	intent, err := p.classify(ctx, message)
	if err != nil {
		return nil, err
	}
	log.Info("intent classified", "intent", intent.String(), "user_query", truncate(message, maxLoggedQuery))

	in := DecisionInput{
		Intent:            intent,
		SearchConfigured:  p.retriever.Configured(),
		Threshold:         p.settings.ConfidenceThreshold,
		EscalationMessage: p.settings.EscalationMessage,
		OffTopicMessage:   p.settings.OffTopicMessage,
	}

	retrievalUsed := false
	switch intent {
	case domain.IntentGeneric:
		in.GenericAnswer, err = p.generic(ctx, message, req.History)
		if err != nil {
			return nil, err
		}
	case domain.IntentCavcoSpecific:
		if !in.SearchConfigured {
			log.Warn("search index not configured; escalating knowledge-base question")
			break
		}
		retrievalUsed = true
		if err := p.ground(ctx, message, &in); err != nil {
			return nil, err
		}
	case domain.IntentOffTopic, domain.IntentUnknown:
	}

	d := Decide(in)

	log.Info(fmt.Sprintf("chat completed | intent=%s retrieval=%t docs=%d confidence=%.2f answer_type=%s",
		intent, retrievalUsed, len(in.Docs), d.Score(), d.AnswerType),
		"intent", intent.String(),
		"retrieval_used", retrievalUsed,
		"document_ids", sourceIDs(in.Docs),
		"confidence_score", d.Score(),
		"confidence_threshold", p.settings.ConfidenceThreshold,
		"answer_type", d.AnswerType.String(),
		"requires_escalation", d.RequiresEscalation,
	)

	recordID := p.persistTurn(ctx, log, cid, message, intent, d)
	return toResponse(cid, recordID, d), nil
}

func (p *AnswerPipeline) classify(ctx context.Context, message string) (domain.Intent, error) {
	ctx, cancel := withTimeout(ctx, p.timeouts.LLM)
	defer cancel()
	return p.router.Classify(ctx, message)
}

func (p *AnswerPipeline) generic(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
	ctx, cancel := withTimeout(ctx, p.timeouts.LLM)
	defer cancel()
	return p.generator.GenerateGeneric(ctx, message, history)
}

// ground runs retrieve, generate and score for a knowledge-base question.
// With no documents it stops after retrieval.
func (p *AnswerPipeline) ground(ctx context.Context, message string, in *DecisionInput) error {
	searchCtx, cancel := withTimeout(ctx, p.timeouts.Search)
	docs, err := p.retriever.Retrieve(searchCtx, message, p.settings.TopK)
	cancel()
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	in.Docs = docs
	if len(docs) == 0 {
		return nil
	}

	genCtx, cancel := withTimeout(ctx, p.timeouts.LLM)
	answer, err := p.generator.Generate(genCtx, message, docs)
	cancel()
	if err != nil {
		return err
	}
	in.GroundedAnswer = answer

	scoreCtx, cancel := withTimeout(ctx, p.timeouts.LLM)
	in.Score = p.gate.Score(scoreCtx, message, answer, len(docs))
	cancel()
	return nil
}

// persistTurn records the decision. Failures never affect the turn.
func (p *AnswerPipeline) persistTurn(
	ctx context.Context,
	log *logger.Logger,
	cid, message string,
	intent domain.Intent,
	d domain.AnswerDecision,
) string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.PersistTurn(ctx, domain.TurnRecord{
		ID:                 uuid.New().String(),
		ConversationID:     cid,
		UserMessage:        message,
		Response:           d.ResponseText,
		Intent:             intent,
		AnswerType:         d.AnswerType,
		ConfidenceScore:    d.ConfidenceScore,
		ConfidenceLabel:    d.ConfidenceLabel,
		RequiresEscalation: d.RequiresEscalation,
		SourceIDs:          sourceIDs(d.Sources),
		CreatedAt:          p.now().UTC(),
	})
	if err != nil {
		log.Warn("failed to record conversation turn", "error", err)
		return ""
	}
	return id
}

func toResponse(cid, recordID string, d domain.AnswerDecision) *domain.ChatResponse {
	return &domain.ChatResponse{
		Response:             d.ResponseText,
		ConversationID:       cid,
		Confidence:           d.ConfidenceLabel,
		ConfidenceScore:      d.ConfidenceScore,
		Source:               d.Source,
		AnswerType:           d.AnswerType.String(),
		Sources:              d.Sources,
		RequiresEscalation:   d.RequiresEscalation,
		ConversationRecordID: recordID,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
