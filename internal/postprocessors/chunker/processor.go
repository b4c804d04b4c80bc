// Package chunker splits knowledge-base sections into token-bounded chunks.
//
// Chunking runs in two passes. The first emits one chunk per section, splitting
// long sections into pieces with a word overlap carried across each split.
// The second merges adjacent small chunks while the result stays within the
// token ceiling.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/postprocessors/tokens"
)

const (
	paragraphSep = "\n\n"
	titleSep     = " | "
	idHashLen    = 16
)

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor chunks sections of one page.
type Processor struct {
	counter driven.TokenCounter
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithTokenCounter sets the shared token counter.
func WithTokenCounter(c driven.TokenCounter) Option {
	return func(p *Processor) {
		if c != nil {
			p.counter = c
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		counter: tokens.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk returns the chunks of one page in order.
func (p *Processor) Chunk(sections []domain.StructuredSection, cfg domain.ChunkingConfig) []domain.Chunk {
	var chunks []domain.Chunk
	for _, s := range sections {
		chunks = append(chunks, p.chunkSection(s, cfg)...)
	}
	return p.mergeSmall(chunks, cfg)
}

// ChunkPlainText chunks unstructured text without section titles or merging.
func (p *Processor) ChunkPlainText(text string, cfg domain.ChunkingConfig) []domain.Chunk {
	return p.split("", text, "", cfg)
}

// ChunkID returns the stable identity of a chunk.
func (p *Processor) ChunkID(pageID, sectionTitle string, index int) string {
	return ChunkID(pageID, sectionTitle, index)
}

// ChunkID derives a chunk id from the page id, section title and ordinal index.
// The id is prefixed with the page id and suffixed with the index so that it
// stays readable in the index.
func ChunkID(pageID, sectionTitle string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", pageID, sectionTitle, index)))
	return fmt.Sprintf("%s_%s_%d", pageID, hex.EncodeToString(sum[:])[:idHashLen], index)
}

func (p *Processor) chunkSection(s domain.StructuredSection, cfg domain.ChunkingConfig) []domain.Chunk {
	title := ""
	if s.HasHeading {
		title = strings.TrimSpace(s.Heading)
	}
	return p.split(title, s.Text, title, cfg)
}

// split packs blank-line separated paragraphs into chunks of at most MaxTokens.
// The first chunk opens with lead and every later chunk opens with the tail
// words of the chunk before it. Paragraphs are cut into pieces of about
// TargetTokens, and a chunk still under MinTokens, or holding only its
// opening words, is topped up with the head of the next piece.
func (p *Processor) split(lead, text, title string, cfg domain.ChunkingConfig) []domain.Chunk {
	lead = strings.TrimSpace(lead)
	text = strings.TrimSpace(text)
	if text == "" {
		lead, text = "", lead
	}
	if text == "" {
		return nil
	}
	whole := text
	if lead != "" {
		whole = lead + paragraphSep + text
	}
	if n := p.counter.Count(whole); n <= cfg.MaxTokens {
		return []domain.Chunk{{Content: whole, SectionTitle: title, TokenCount: n}}
	}

	pieceLimit := cfg.TargetTokens
	if pieceLimit <= 0 || pieceLimit > cfg.MaxTokens {
		pieceLimit = cfg.MaxTokens
	}
	var pending []string
	if lead != "" && !p.fitsSeed(lead, cfg) {
		pending = append(pending, p.fit(lead, cfg.MaxTokens)...)
		lead = ""
	}
	for _, part := range blankLine.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pending = append(pending, p.fit(part, pieceLimit)...)
	}

	var chunks []domain.Chunk
	buffer, seeded := lead, lead != ""
	for len(pending) > 0 {
		piece := pending[0]
		pending = pending[1:]

		if buffer == "" {
			buffer, seeded = piece, false
			continue
		}
		if candidate := buffer + paragraphSep + piece; p.counter.Count(candidate) <= cfg.MaxTokens {
			buffer, seeded = candidate, false
			continue
		}
		if seeded || p.counter.Count(buffer) < cfg.MinTokens {
			if head, rest, ok := p.topUp(buffer, piece, cfg.MaxTokens); ok {
				buffer, seeded = buffer+paragraphSep+head, false
				pending = slices.Concat(rest, pending)
				continue
			}
		}
		if seeded {
			buffer, seeded = piece, false
			continue
		}

		flushed := p.chunk(buffer, title)
		chunks = append(chunks, flushed)
		buffer, seeded = "", false
		if overlap := tailWords(flushed.Content, cfg); overlap != "" && p.fitsSeed(overlap, cfg) {
			buffer, seeded = overlap, true
		}
		pending = slices.Concat([]string{piece}, pending)
	}
	if buffer != "" && !seeded {
		chunks = append(chunks, p.chunk(buffer, title))
	}

	return chunks
}

func (p *Processor) chunk(content, title string) domain.Chunk {
	return domain.Chunk{Content: content, SectionTitle: title, TokenCount: p.counter.Count(content)}
}

// fitsSeed reports whether text is short enough to open a chunk and still
// leave room for content.
func (p *Processor) fitsSeed(text string, cfg domain.ChunkingConfig) bool {
	return p.counter.Count(text) <= cfg.MaxTokens/2
}

// topUp cuts from piece the largest head that still fits after buffer.
func (p *Processor) topUp(buffer, piece string, limit int) (string, []string, bool) {
	room := limit - p.counter.Count(buffer+paragraphSep) - 1
	if room <= 0 {
		return "", nil, false
	}
	parts := p.fit(piece, room)
	if len(parts) == 0 || p.counter.Count(buffer+paragraphSep+parts[0]) > limit {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

// tailWords returns the overlap carried from a flushed buffer:
// half its words, clamped to [OverlapMin, OverlapMax].
func tailWords(buffer string, cfg domain.ChunkingConfig) string {
	words := strings.Fields(buffer)
	size := min(cfg.OverlapMax, max(cfg.OverlapMin, len(words)/2))
	if size <= 0 {
		return ""
	}
	if size > len(words) {
		size = len(words)
	}
	return strings.Join(words[len(words)-size:], " ")
}

// mergeSmall merges adjacent chunks while either side is below MinTokens and
// the merged chunk stays within MaxTokens, sweeping until nothing changes.
func (p *Processor) mergeSmall(chunks []domain.Chunk, cfg domain.ChunkingConfig) []domain.Chunk {
	for {
		merged, changed := p.mergeSweep(chunks, cfg)
		chunks = merged
		if !changed {
			return chunks
		}
	}
}

func (p *Processor) mergeSweep(chunks []domain.Chunk, cfg domain.ChunkingConfig) ([]domain.Chunk, bool) {
	if len(chunks) < 2 {
		return chunks, false
	}

	changed := false
	out := make([]domain.Chunk, 0, len(chunks))
	buffer := chunks[0]
	for _, next := range chunks[1:] {
		if buffer.TokenCount < cfg.MinTokens || next.TokenCount < cfg.MinTokens {
			content := buffer.Content + paragraphSep + next.Content
			if n := p.counter.Count(content); n <= cfg.MaxTokens {
				buffer = domain.Chunk{
					Content:      content,
					SectionTitle: joinTitles(buffer.SectionTitle, next.SectionTitle),
					TokenCount:   n,
				}
				changed = true
				continue
			}
		}
		out = append(out, buffer)
		buffer = next
	}
	out = append(out, buffer)

	return out, changed
}

// joinTitles joins the distinct non-empty titles of two chunks.
func joinTitles(a, b string) string {
	var titles []string
	seen := make(map[string]bool)
	for _, t := range append(strings.Split(a, titleSep), strings.Split(b, titleSep)...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		titles = append(titles, t)
	}
	return strings.Join(titles, titleSep)
}
