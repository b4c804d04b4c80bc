package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// fit returns part unchanged when it is within limit tokens. Larger paragraphs
// are split at line, sentence and word boundaries by a recursive character
// splitter measured with the shared counter; anything still over the limit is
// cut greedily by words.
func (p *Processor) fit(part string, limit int) []string {
	if p.counter.Count(part) <= limit {
		return []string{part}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(limit),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators([]string{"\n", ". ", "; ", " ", ""}),
		textsplitter.WithLenFunc(p.counter.Count),
	)
	pieces, err := splitter.SplitText(part)
	if err != nil || len(pieces) == 0 {
		pieces = []string{part}
	}

	var out []string
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if p.counter.Count(piece) <= limit {
			out = append(out, piece)
			continue
		}
		out = append(out, p.cutWords(piece, limit)...)
	}
	return out
}

// cutWords packs words greedily into pieces of at most limit tokens.
// A single word over the limit is cut by runes.
func (p *Processor) cutWords(text string, limit int) []string {
	var out []string
	current := ""
	for _, word := range strings.Fields(text) {
		if p.counter.Count(word) > limit {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			out = append(out, p.cutRunes(word, limit)...)
			continue
		}
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if p.counter.Count(candidate) <= limit {
			current = candidate
			continue
		}
		out = append(out, current)
		current = word
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func (p *Processor) cutRunes(word string, limit int) []string {
	var out []string
	var b strings.Builder
	for _, r := range word {
		b.WriteRune(r)
		if p.counter.Count(b.String()) > limit {
			s := b.String()
			last := len(s) - len(string(r))
			if last > 0 {
				out = append(out, s[:last])
			}
			b.Reset()
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
