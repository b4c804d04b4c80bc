package driven

import "github.com/custodia-labs/helpdesk/internal/core/domain"

// Chunker splits the sections of one page into bounded chunks.
type Chunker interface {
	// Chunk returns chunks in page order.
	Chunk(sections []domain.StructuredSection, cfg domain.ChunkingConfig) []domain.Chunk

	// ChunkPlainText chunks text that has no section structure.
	ChunkPlainText(text string, cfg domain.ChunkingConfig) []domain.Chunk

	// ChunkID returns the stable identity of the chunk at index within a page.
	ChunkID(pageID, sectionTitle string, index int) string
}

// TokenCounter measures text on the generation-context budget scale.
// One instance is shared by every component that compares against token thresholds.
type TokenCounter interface {
	Count(text string) int
}
