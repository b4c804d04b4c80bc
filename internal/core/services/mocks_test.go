package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// --- Mock implementations ---

// llmCall records one call made to mockLLM.
type llmCall struct {
	prompt   string
	messages []domain.ChatMessage
	opts     driven.GenerateOptions
}

// mockLLM implements driven.LLMService. Replies are routed by the system
// prompt so one mock can serve classification, generation and scoring.
type mockLLM struct {
	mu sync.Mutex

	intentReply  string
	answerReply  string
	scoreReply   string
	genericReply string

	intentErr  error
	answerErr  error
	scoreErr   error
	genericErr error

	generateCalls []llmCall
	chatCalls     []llmCall
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls = append(m.generateCalls, llmCall{prompt: prompt, opts: opts})

	switch opts.SystemPrompt {
	case defaultPrompt(domain.PromptIntentSystem):
		return m.intentReply, m.intentErr
	case defaultPrompt(domain.PromptConfidenceSystem):
		return m.scoreReply, m.scoreErr
	default:
		return m.answerReply, m.answerErr
	}
}

func (m *mockLLM) Chat(_ context.Context, messages []domain.ChatMessage, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatCalls = append(m.chatCalls, llmCall{messages: messages, opts: opts})
	return m.genericReply, m.genericErr
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// callsWith counts Generate calls that used the named system prompt.
func (m *mockLLM) callsWith(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.generateCalls {
		if c.opts.SystemPrompt == defaultPrompt(name) {
			n++
		}
	}
	return n
}

func (m *mockLLM) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.generateCalls) + len(m.chatCalls)
}

func defaultPrompt(name string) string {
	p, _ := domain.DefaultPrompt(name)
	return p
}

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	mu         sync.Mutex
	dims       int
	embedErr   error
	batchErr   error
	short      bool
	embedCalls int
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vector(t))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) vector(text string) []float32 {
	v := make([]float32, m.Dimensions())
	v[0] = float32(len(text))
	return v
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims == 0 {
		return 4
	}
	return m.dims
}

func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockIndex implements driven.SearchIndex.
type mockIndex struct {
	mu sync.Mutex

	hits      []domain.SourceDocument
	searchErr error
	upsertErr error
	schemaErr error

	searchCalls  int
	lastQuery    driven.SearchQuery
	schemaCalls  int
	schemaDims   int
	upsertSizes  []int
	upserted     []domain.ChunkDocument
	failOnUpsert int
}

func (m *mockIndex) Search(_ context.Context, q driven.SearchQuery) ([]domain.SourceDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockIndex) Upsert(_ context.Context, docs []domain.ChunkDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertSizes = append(m.upsertSizes, len(docs))
	if m.upsertErr != nil && len(m.upsertSizes) > m.failOnUpsert {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, docs...)
	return nil
}

func (m *mockIndex) EnsureSchema(_ context.Context, dims int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaCalls++
	m.schemaDims = dims
	return m.schemaErr
}

func (m *mockIndex) Name() string { return "mock" }
func (m *mockIndex) Close() error { return nil }

// mockConversationStore implements driven.ConversationStore.
type mockConversationStore struct {
	mu          sync.Mutex
	turns       []domain.TurnRecord
	feedback    []domain.Feedback
	persistErr  error
	feedbackErr error
}

func (m *mockConversationStore) PersistTurn(_ context.Context, rec domain.TurnRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistErr != nil {
		return "", m.persistErr
	}
	m.turns = append(m.turns, rec)
	return rec.ID, nil
}

func (m *mockConversationStore) GetTurn(_ context.Context, id string) (*domain.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.turns {
		if m.turns[i].ID == id {
			rec := m.turns[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockConversationStore) ListTurns(_ context.Context, conversationID string) ([]domain.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TurnRecord
	for _, t := range m.turns {
		if t.ConversationID == conversationID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockConversationStore) RecordFeedback(_ context.Context, fb domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedbackErr != nil {
		return m.feedbackErr
	}
	m.feedback = append(m.feedback, fb)
	return nil
}

// mockPageSource implements driven.PageSource.
type mockPageSource struct {
	pages    []domain.SourcePage
	fetchErr error
	calls    int
	lastKey  string
}

func (m *mockPageSource) SourceType() string { return "confluence" }

func (m *mockPageSource) FetchPages(_ context.Context, key string) ([]domain.SourcePage, error) {
	m.calls++
	m.lastKey = key
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.pages, nil
}

// mockRunStore implements driven.IngestRunStore.
type mockRunStore struct {
	runs []domain.IngestStats
}

func (m *mockRunStore) SaveRun(_ context.Context, stats domain.IngestStats) error {
	m.runs = append(m.runs, stats)
	return nil
}

func (m *mockRunStore) LastRun(_ context.Context, key string) (*domain.IngestStats, error) {
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].CollectionKey == key {
			r := m.runs[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func docs(n int) []domain.SourceDocument {
	out := make([]domain.SourceDocument, n)
	for i := range out {
		out[i] = domain.SourceDocument{
			SourceType:   "confluence",
			SourceID:     "page-" + string(rune('a'+i)),
			Title:        "VPN Guide",
			ChunkText:    "1. Open the Cavco VPN client.\n2. Click Reset.",
			SectionTitle: "Reset",
		}
	}
	return out
}
