package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure ConfidenceGate can use custom prompts.
var _ driven.PromptStoreAware = (*ConfidenceGate)(nil)

// Scoring call parameters.
const (
	confidenceTemperature = 0.0
	confidenceMaxTokens   = 10
)

// Heuristic scoring constants.
const (
	heuristicBase          = 0.5
	heuristicSourceBonus   = 0.2
	heuristicSourceCap     = 5
	heuristicShortPenalty  = 0.2
	heuristicShortChars    = 50
	heuristicPhrasePenalty = 0.2
)

// lowConfidencePhrases mark answers that admit the knowledge base had nothing.
var lowConfidencePhrases = []string{
	"couldn't find",
	"don't have",
	"not in the knowledge base",
	"create a support ticket",
	"not find that",
}

// scorePattern finds the first fraction such as "0.85" or ".7". Integers and
// ratings out of ten never match, so they score zero.
var scorePattern = regexp.MustCompile(`0?\.\d+`)

// ConfidenceGate scores how well an answer addresses a question and decides
// whether the answer may be shown.
type ConfidenceGate struct {
	llm     driven.LLMService
	useLLM  bool
	prompts promptLoader
	log     *logger.Logger
}

// NewConfidenceGate creates a gate. When useLLM is false, or llm is nil,
// only the heuristic scorer is used.
func NewConfidenceGate(llm driven.LLMService, useLLM bool, log *logger.Logger) *ConfidenceGate {
	if log == nil {
		log = logger.Nop()
	}
	return &ConfidenceGate{llm: llm, useLLM: useLLM, log: log}
}

// SetPromptStore sets the prompt store for customisable prompts.
func (g *ConfidenceGate) SetPromptStore(store driven.PromptStore) {
	g.prompts.store = store
}

// Score returns a confidence in [0,1]. The LLM scorer is preferred; when it
// is disabled or its call fails, the heuristic scorer is used.
func (g *ConfidenceGate) Score(ctx context.Context, query, answer string, sourceCount int) float64 {
	if g.useLLM && g.llm != nil {
		score, err := g.ScoreLLM(ctx, query, answer)
		if err == nil {
			return score
		}
		g.log.Warn("LLM confidence scoring failed, using heuristic", "error", err)
	}
	return ScoreHeuristic(answer, sourceCount)
}

// ScoreLLM asks the model to rate the answer. An empty answer scores 0
// without a call; an unparseable reply scores 0.
func (g *ConfidenceGate) ScoreLLM(ctx context.Context, query, answer string) (float64, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, nil
	}
	if g.llm == nil {
		return 0, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(g.prompts.load(domain.PromptConfidenceUser), strings.TrimSpace(query), answer)
	reply, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		SystemPrompt: g.prompts.load(domain.PromptConfidenceSystem),
		MaxTokens:    confidenceMaxTokens,
		Temperature:  confidenceTemperature,
	})
	if err != nil {
		return 0, fmt.Errorf("score confidence: %w", err)
	}

	score, ok := parseScore(reply)
	if !ok {
		g.log.Warn("confidence scorer could not parse score", "reply", reply)
	}
	return score, nil
}

// ScoreHeuristic scores an answer from its length, the number of backing
// sources, and admissions that nothing was found.
func ScoreHeuristic(answer string, sourceCount int) float64 {
	score := heuristicBase
	if sourceCount > 0 {
		score += heuristicSourceBonus * float64(min(sourceCount, heuristicSourceCap)) / heuristicSourceCap
	}
	if utf8.RuneCountInString(strings.TrimSpace(answer)) < heuristicShortChars {
		score -= heuristicShortPenalty
	}
	lower := strings.ToLower(answer)
	for _, phrase := range lowConfidencePhrases {
		if strings.Contains(lower, phrase) {
			score -= heuristicPhrasePenalty
			break
		}
	}
	return clamp01(score)
}

// Gated reports whether score falls below threshold and must escalate.
func Gated(score, threshold float64) bool {
	return score < threshold
}

func parseScore(reply string) (float64, bool) {
	m := scorePattern.FindString(strings.TrimSpace(reply))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v), true
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
