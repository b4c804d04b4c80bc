package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// MaxContextChars bounds the knowledge-base context sent to the generator.
const MaxContextChars = 8000

const (
	emptyContext     = "(No relevant documents found in the knowledge base.)"
	truncatedContext = "\n\n[Context truncated.]"
)

// BuildRAGContext renders retrieved documents as numbered context blocks.
func BuildRAGContext(docs []domain.SourceDocument) string {
	if len(docs) == 0 {
		return emptyContext
	}

	blocks := make([]string, 0, len(docs))
	for i, d := range docs {
		title := d.Title
		if title == "" {
			title = d.SourceID
		}
		header := fmt.Sprintf("--- Document %d: %s", i+1, title)
		if d.SectionTitle != "" {
			header += fmt.Sprintf(" [%s]", d.SectionTitle)
		}
		blocks = append(blocks, header+" ---\n"+d.ChunkText)
	}

	ctx := strings.Join(blocks, "\n\n")
	if len(ctx) > MaxContextChars {
		ctx = truncateUTF8(ctx, MaxContextChars) + truncatedContext
	}
	return ctx
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// promptLoader resolves templates from an optional store, falling back to
// the built-in defaults.
type promptLoader struct {
	store driven.PromptStore
}

func (p promptLoader) load(name string) string {
	if p.store != nil {
		if tmpl, err := p.store.Load(name); err == nil && strings.TrimSpace(tmpl) != "" {
			return tmpl
		}
	}
	tmpl, _ := domain.DefaultPrompt(name)
	return tmpl
}
