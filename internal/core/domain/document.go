package domain

// StructuredSection is one headed span of a page, in document order.
// A section without a heading holds content that precedes the first heading.
type StructuredSection struct {
	// Heading is the visible heading text. Empty when HasHeading is false.
	Heading string

	// HasHeading distinguishes an unheaded section from an empty heading.
	HasHeading bool

	// Level is the heading level 1–6, or 0 for unheaded sections.
	Level int

	// Text is the whitespace-normalised visible text under the heading.
	Text string
}

// Chunk is a retrieval-sized unit of page content.
// It is transient and becomes a ChunkDocument before leaving ingestion.
type Chunk struct {
	// Content is the chunk text.
	Content string

	// SectionTitle is the originating heading, or several joined by " | " after a merge.
	SectionTitle string

	// TokenCount is measured with the shared token counter.
	TokenCount int
}

// ChunkDocument is the unit upserted into the search index.
// Its ID is derived from (SourcePageID, SectionTitle, ordinal index) so that
// re-ingesting unchanged content overwrites rather than duplicates.
type ChunkDocument struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Embedding     []float32 `json:"embedding"`
	SourceType    string    `json:"source_type"`
	CollectionKey string    `json:"space_key"`
	SourcePageID  string    `json:"page_id"`
	SourceTitle   string    `json:"page_title"`
	SectionTitle  string    `json:"section_title"`
	URL           string    `json:"url"`
	LastUpdated   string    `json:"last_updated"`
	Version       int       `json:"version"`
}

// MaxLastUpdatedLen bounds the LastUpdated field stored in the index.
const MaxLastUpdatedLen = 50

// SourceDocument is a retrieval hit, a read-only projection of a ChunkDocument.
type SourceDocument struct {
	SourceType   string  `json:"source_type"`
	SourceID     string  `json:"source_id"`
	Title        string  `json:"title"`
	ChunkText    string  `json:"chunk_text"`
	URL          string  `json:"url,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	Score        float64 `json:"score,omitempty"`
}

// SourcePage is one page fetched from a knowledge-base source.
// Text carries the body of sources without markup and is only read when HTML is empty.
type SourcePage struct {
	ID          string
	Title       string
	HTML        string
	Text        string
	Version     int
	URL         string
	LastUpdated string
}
