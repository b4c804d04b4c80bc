package connectors

import (
	"fmt"

	"github.com/custodia-labs/helpdesk/internal/connectors/confluence"
	"github.com/custodia-labs/helpdesk/internal/connectors/filesystem"
	"github.com/custodia-labs/helpdesk/internal/connectors/notion"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// New creates the page source selected by cfg.Kind.
func New(cfg domain.SourceSettings, log *logger.Logger) (driven.PageSource, error) {
	switch cfg.Kind {
	case domain.SourceKindConfluence, "":
		return confluence.New(cfg.Confluence, log)
	case domain.SourceKindNotion:
		return notion.New(cfg.Notion, log)
	case domain.SourceKindFilesystem:
		return filesystem.New(cfg.Filesystem, log)
	default:
		return nil, fmt.Errorf("%w: source kind %q", domain.ErrUnsupportedType, cfg.Kind)
	}
}
