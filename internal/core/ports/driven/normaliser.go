package driven

import "github.com/custodia-labs/helpdesk/internal/core/domain"

// SectionExtractor turns the markup of one page into ordered sections.
// It never fails: unparseable markup yields fewer or empty sections.
type SectionExtractor interface {
	Extract(markup string) []domain.StructuredSection
}
