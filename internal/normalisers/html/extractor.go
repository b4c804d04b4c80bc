package html

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.SectionExtractor = (*Extractor)(nil)

// skipTags are elements whose content is never visible page text.
var skipTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Head:     true,
	atom.Template: true,
}

// Extractor splits HTML into sections at h1–h6 headings.
type Extractor struct{}

// New creates a new HTML section extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract walks the document in order. Each heading opens a section whose text
// is everything up to the next heading of any level; text before the first
// heading becomes an unheaded section. A document without headings yields a
// single unheaded section, or none when it has no visible text.
func (e *Extractor) Extract(markup string) []domain.StructuredSection {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var sections []domain.StructuredSection
	current := &sectionBuilder{}
	flush := func() {
		if s, ok := current.build(); ok {
			sections = append(sections, s)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.parts = append(current.parts, n.Data)
			return
		case html.ElementNode:
			if skipTags[n.DataAtom] {
				return
			}
			if level := headingLevel(n); level > 0 {
				flush()
				current = &sectionBuilder{
					heading:    normalise(textOf(n)),
					hasHeading: true,
					level:      level,
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()

	return sections
}

// PlainText returns all visible text of markup as one normalised string.
func PlainText(markup string) string {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return normalise(textOf(root))
}

// SectionsToPlainText flattens sections back into text, headings first.
func SectionsToPlainText(sections []domain.StructuredSection) string {
	var parts []string
	for _, s := range sections {
		if s.HasHeading && s.Heading != "" {
			parts = append(parts, s.Heading)
		}
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return normalise(strings.Join(parts, "\n\n"))
}

// Title returns the document <title>, else the first h1, else a name derived
// from uri.
func Title(markup, uri string) string {
	root, err := html.Parse(strings.NewReader(markup))
	if err == nil {
		if n := find(root, atom.Title); n != nil {
			if t := normalise(rawText(n)); t != "" {
				return t
			}
		}
		if n := find(root, atom.H1); n != nil {
			if t := normalise(textOf(n)); t != "" {
				return t
			}
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

type sectionBuilder struct {
	heading    string
	hasHeading bool
	level      int
	parts      []string
}

func (b *sectionBuilder) build() (domain.StructuredSection, bool) {
	text := normalise(strings.Join(b.parts, " "))
	if !b.hasHeading && text == "" {
		return domain.StructuredSection{}, false
	}
	return domain.StructuredSection{
		Heading:    b.heading,
		HasHeading: b.hasHeading,
		Level:      b.level,
		Text:       text,
	}, true
}

func headingLevel(n *html.Node) int {
	switch n.DataAtom {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	default:
		return 0
	}
}

// textOf joins the visible text under n with spaces.
func textOf(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		if n.Type == html.ElementNode && skipTags[n.DataAtom] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// rawText joins text children of n, ignoring skipTags (for <title> inside <head>).
func rawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

// normalise collapses whitespace runs to one space and trims.
func normalise(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
