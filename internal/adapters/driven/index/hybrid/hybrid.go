// Package hybrid merges vector and keyword rankings into one result list.
//
// Backends that only offer vector similarity oversample candidates and
// re-rank them here with a keyword ranking over the same candidates.
// Backends with native full-text search pass both rankings directly.
package hybrid

import (
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

// rrfK dampens the contribution of low ranks in reciprocal rank fusion.
const rrfK = 60

// CandidateFactor is how many vector candidates per requested result a
// vector-only backend should fetch before re-ranking.
const CandidateFactor = 4

// Hit is one ranked document keyed by its chunk ID.
type Hit struct {
	ID  string
	Doc domain.SourceDocument
}

// Fuse combines ranked lists by reciprocal rank fusion and returns at most
// topK documents, best first. Each document's Score is its fused score.
// Ties keep the order in which documents were first seen.
func Fuse(topK int, lists ...[]Hit) []domain.SourceDocument {
	type entry struct {
		doc   domain.SourceDocument
		score float64
		seen  int
	}

	byID := make(map[string]*entry)
	seen := 0
	for _, list := range lists {
		for rank, h := range list {
			e, ok := byID[h.ID]
			if !ok {
				e = &entry{doc: h.Doc, seen: seen}
				byID[h.ID] = e
				seen++
			}
			e.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	entries := make([]*entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].seen < entries[j].seen
	})

	if topK > 0 && len(entries) > topK {
		entries = entries[:topK]
	}
	docs := make([]domain.SourceDocument, len(entries))
	for i, e := range entries {
		docs[i] = e.doc
		docs[i].Score = e.score
	}
	return docs
}

// KeywordRank orders candidates by how many distinct query terms appear in
// their title, section title or text. Candidates matching no term are dropped.
func KeywordRank(query string, candidates []Hit) []Hit {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil
	}

	type scored struct {
		hit     Hit
		matches int
	}
	var out []scored
	for _, c := range candidates {
		words := make(map[string]struct{})
		for _, w := range Terms(c.Doc.Title + " " + c.Doc.SectionTitle + " " + c.Doc.ChunkText) {
			words[w] = struct{}{}
		}
		n := 0
		for _, t := range terms {
			if _, ok := words[t]; ok {
				n++
			}
		}
		if n > 0 {
			out = append(out, scored{hit: c, matches: n})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].matches > out[j].matches })

	hits := make([]Hit, len(out))
	for i, s := range out {
		hits[i] = s.hit
	}
	return hits
}

// Terms lowercases s and splits it into distinct words of two or more
// letters or digits, in order of first appearance.
func Terms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// CandidateCount is the number of vector candidates to request for topK
// results from a collection holding total documents.
func CandidateCount(topK, total int) int {
	n := topK * CandidateFactor
	if n > total {
		n = total
	}
	return n
}
