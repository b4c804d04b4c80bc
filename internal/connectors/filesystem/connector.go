// Package filesystem provides a page source that reads HTML, Markdown and text
// files from a local directory and can watch it for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/logger"
	"github.com/custodia-labs/helpdesk/internal/normalisers/html"
)

// Verify interface compliance.
var _ driven.WatchablePageSource = (*Connector)(nil)

// SourceType is recorded on every chunk ingested from a local directory.
const SourceType = "filesystem"

// DefaultDebounce coalesces bursts of file events into one change signal.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem: connector closed")

// Connector reads pages from files under a root directory.
type Connector struct {
	root     string
	debounce time.Duration
	log      *logger.Logger

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a connector for the configured root directory.
func New(cfg domain.FilesystemSettings, log *logger.Logger) (*Connector, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: filesystem root is required", domain.ErrInvalidConfig)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Connector{
		root:     LocalPath(cfg.Root),
		debounce: DefaultDebounce,
		log:      log.With("source", SourceType),
	}, nil
}

// SourceType returns "filesystem".
func (c *Connector) SourceType() string {
	return SourceType
}

// FetchPages reads every supported, non-hidden file under the root, ordered by
// relative path. A non-empty collectionKey overrides the configured root.
func (c *Connector) FetchPages(ctx context.Context, collectionKey string) ([]domain.SourcePage, error) {
	root := c.root
	if collectionKey != "" {
		root = LocalPath(collectionKey)
	}
	if err := checkRoot(root); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConnectorUnavailable, err)
	}

	var pages []domain.SourcePage
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			c.log.Warn("skipping path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isSupported(path) {
			return nil
		}

		page, readErr := readPage(path, rel)
		if readErr != nil {
			c.log.Warn("skipping file", "path", path, "error", readErr)
			return nil
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	c.log.Info("fetched pages", "root", root, "pages", len(pages))
	return pages, nil
}

// Watch signals on the returned channel after a burst of relevant file
// changes settles. The channel is closed when ctx is cancelled.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.mu.Unlock()

	if err := checkRoot(c.root); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.root); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, ErrClosed
	}
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	out := make(chan struct{}, 1)
	go c.loop(ctx, watcher, out)
	return out, nil
}

// Close stops every active watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}

func (c *Connector) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer c.release(watcher)

	timer := time.NewTimer(c.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if c.handleFsEvent(watcher, event) {
				timer.Reset(c.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.log.Warn("watch error", "error", err)
		case <-timer.C:
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

// handleFsEvent reports whether the event changes a page. New directories
// are added to the watch as a side effect.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	rel, err := filepath.Rel(c.root, event.Name)
	if err != nil || isHidden(rel) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if watcher != nil {
				if addErr := c.addTree(watcher, event.Name); addErr != nil {
					c.log.Warn("watch directory", "path", event.Name, "error", addErr)
				}
			}
			return false
		}
	}

	if !isSupported(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// addTree watches dir and every non-hidden directory below it.
func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(c.root, path); relErr == nil && isHidden(rel) {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}

func (c *Connector) release(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.watchers {
		if w == watcher {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			_ = w.Close()
			return
		}
	}
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", root)
	}
	return nil
}

func readPage(path, rel string) (domain.SourcePage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourcePage{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.SourcePage{}, err
	}

	page := domain.SourcePage{
		ID:          filepath.ToSlash(rel),
		URL:         FileURL(path),
		LastUpdated: info.ModTime().UTC().Format(time.RFC3339),
	}
	if isHTML(path) {
		page.HTML = string(data)
		page.Title = html.Title(page.HTML, path)
	} else {
		page.Text = string(data)
		page.Title = html.Title("", path)
	}
	return page, nil
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

func isSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".md", ".txt":
		return true
	default:
		return false
	}
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
