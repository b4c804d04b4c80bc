// Package notion provides a page source backed by the Notion search API.
// Block trees are rendered to HTML so the section extractor sees the same
// heading structure a Confluence page would have.
package notion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Verify interface compliance.
var _ driven.PageSource = (*Connector)(nil)

// SourceType is recorded on every chunk ingested from Notion.
const SourceType = "notion"

const (
	// Notion allows an average of three requests per second per integration.
	requestsPerSecond = 3
	pageSize          = 100
	maxBlockDepth     = 20
)

// Connector fetches every page shared with a Notion integration.
type Connector struct {
	client    *notionapi.Client
	limiter   *rate.Limiter
	pageLimit int
	log       *logger.Logger
}

// New creates a connector from settings. Extra client options are passed to
// the Notion client, for example a custom HTTP client.
func New(cfg domain.NotionSettings, log *logger.Logger, opts ...notionapi.ClientOption) (*Connector, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: notion token is required", domain.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Connector{
		client:    notionapi.NewClient(notionapi.Token(cfg.Token), opts...),
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		pageLimit: cfg.PageLimit,
		log:       log.With("source", SourceType),
	}, nil
}

// SourceType returns "notion".
func (c *Connector) SourceType() string {
	return SourceType
}

// FetchPages returns the pages visible to the integration, ordered by ID.
// The collection key is informational; Notion scopes access by integration.
// A page whose blocks cannot be read is skipped with a warning.
func (c *Connector) FetchPages(ctx context.Context, collectionKey string) ([]domain.SourcePage, error) {
	found, err := c.search(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: notion search: %w", domain.ErrConnectorUnavailable, err)
	}

	pages := make([]domain.SourcePage, 0, len(found))
	for _, p := range found {
		body, err := c.render(ctx, notionapi.BlockID(p.ID), 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn("skipping page", "page_id", string(p.ID), "error", err)
			continue
		}

		title := pageTitle(p)
		pages = append(pages, domain.SourcePage{
			ID:          string(p.ID),
			Title:       title,
			HTML:        "<h1>" + escape(title) + "</h1>\n" + body,
			URL:         pageURL(p),
			LastUpdated: p.LastEditedTime.UTC().Format(time.RFC3339),
		})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	c.log.Info("fetched pages", "collection", collectionKey, "pages", len(pages))
	return pages, nil
}

func (c *Connector) search(ctx context.Context) ([]notionapi.Page, error) {
	var (
		pages  []notionapi.Page
		cursor notionapi.Cursor
	)
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.client.Search.Do(ctx, &notionapi.SearchRequest{
			Filter:      notionapi.SearchFilter{Property: "object", Value: "page"},
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, err
		}

		for _, obj := range resp.Results {
			page, ok := obj.(*notionapi.Page)
			if !ok || page.Archived {
				continue
			}
			pages = append(pages, *page)
			if c.pageLimit > 0 && len(pages) >= c.pageLimit {
				return pages, nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// render returns the HTML for the children of a block, descending into nested
// blocks but not into child pages or databases.
func (c *Connector) render(ctx context.Context, id notionapi.BlockID, depth int) (string, error) {
	if depth > maxBlockDepth {
		return "", nil
	}

	var (
		sb     strings.Builder
		cursor notionapi.Cursor
	)
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.client.Block.GetChildren(ctx, id, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return "", err
		}

		for _, block := range resp.Results {
			sb.WriteString(renderBlock(block))

			switch block.(type) {
			case *notionapi.ChildPageBlock, *notionapi.ChildDatabaseBlock:
				continue
			}
			if block.GetHasChildren() {
				nested, err := c.render(ctx, block.GetID(), depth+1)
				if err != nil {
					return "", err
				}
				sb.WriteString(nested)
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return sb.String(), nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

func pageTitle(p notionapi.Page) string {
	for _, prop := range p.Properties {
		if t, ok := prop.(*notionapi.TitleProperty); ok {
			if title := plainText(t.Title); title != "" {
				return title
			}
		}
	}
	return "Untitled"
}

func pageURL(p notionapi.Page) string {
	if p.URL != "" {
		return p.URL
	}
	return "https://www.notion.so/" + strings.ReplaceAll(string(p.ID), "-", "")
}
