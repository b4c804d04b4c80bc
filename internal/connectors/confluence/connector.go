// Package confluence provides a page source that walks a Confluence space
// from its homepage down through every child page.
package confluence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Verify interface compliance.
var _ driven.PageSource = (*Connector)(nil)

// SourceType is recorded on every chunk ingested from Confluence.
const SourceType = "confluence"

// DefaultConcurrency bounds parallel page fetches.
const DefaultConcurrency = 4

// Connector fetches pages of a Confluence space.
type Connector struct {
	client      *Client
	spaceKey    string
	pageLimit   int
	concurrency int
	log         *logger.Logger
}

// New creates a connector from settings.
func New(cfg domain.ConfluenceSettings, log *logger.Logger) (*Connector, error) {
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("%w: confluence base url, email and api token are required", domain.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Nop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Connector{
		client:      NewClient(cfg.BaseURL, cfg.Email, cfg.APIToken, nil),
		spaceKey:    cfg.SpaceKey,
		pageLimit:   cfg.PageLimit,
		concurrency: concurrency,
		log:         log.With("source", SourceType),
	}, nil
}

// SourceType returns "confluence".
func (c *Connector) SourceType() string {
	return SourceType
}

// FetchPages returns every page reachable from the space homepage, ordered by page ID.
// A page that fails with an HTTP error is skipped together with its subtree.
// An empty collectionKey falls back to the configured space key.
func (c *Connector) FetchPages(ctx context.Context, collectionKey string) ([]domain.SourcePage, error) {
	if collectionKey == "" {
		collectionKey = c.spaceKey
	}
	if collectionKey == "" {
		return nil, fmt.Errorf("%w: confluence space key is required", domain.ErrInvalidInput)
	}

	root, err := c.client.HomepageID(ctx, collectionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: space %s: %w", domain.ErrConnectorUnavailable, collectionKey, err)
	}

	var (
		mu    sync.Mutex
		pages []domain.SourcePage
		seen  = map[string]bool{root: true}
	)

	frontier := []string{root}
	for len(frontier) > 0 {
		var next []string

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for _, id := range frontier {
			g.Go(func() error {
				page, children, err := c.fetch(gctx, id)
				if err != nil {
					var apiErr *APIError
					if errors.As(err, &apiErr) {
						c.log.Warn("skipping page", "page_id", id, "error", err)
						return nil
					}
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				if page != nil {
					pages = append(pages, *page)
				}
				for _, child := range children {
					if !seen[child] {
						seen[child] = true
						next = append(next, child)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("fetch pages: %w", err)
		}

		frontier = next
	}

	sortPages(pages)
	c.log.Info("fetched pages", "space_key", collectionKey, "pages", len(pages))
	return pages, nil
}

// fetch loads one page and its child IDs. A failed child listing keeps the page.
func (c *Connector) fetch(ctx context.Context, id string) (*domain.SourcePage, []string, error) {
	p, err := c.client.Page(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	page := &domain.SourcePage{
		ID:          p.ID,
		Title:       p.Title,
		HTML:        p.Body.Storage.Value,
		Version:     p.Version.Number,
		URL:         c.client.PageURL(p.ID),
		LastUpdated: p.Version.When,
	}

	children, err := c.client.ChildPageIDs(ctx, id, c.pageLimit)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, nil, err
		}
		c.log.Warn("skipping child pages", "page_id", id, "error", err)
		return page, nil, nil
	}
	return page, children, nil
}

// sortPages orders pages by numeric ID, falling back to string order.
func sortPages(pages []domain.SourcePage) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, errA := strconv.ParseInt(pages[i].ID, 10, 64)
		b, errB := strconv.ParseInt(pages[j].ID, 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return pages[i].ID < pages[j].ID
	})
}
