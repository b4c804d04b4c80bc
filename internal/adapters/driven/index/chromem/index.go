// Package chromem provides an embedded search index backed by chromem-go.
// Documents persist under a directory so the index survives restarts.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index/hybrid"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.SearchIndex = (*Index)(nil)

// Metadata keys stored with every document.
const (
	metaSourceType   = "source_type"
	metaSpaceKey     = "space_key"
	metaPageID       = "page_id"
	metaPageTitle    = "page_title"
	metaSectionTitle = "section_title"
	metaURL          = "url"
	metaLastUpdated  = "last_updated"
	metaVersion      = "version"
)

// Config holds configuration for the chromem index.
type Config struct {
	// Path is the persistence directory. Empty keeps the index in memory.
	Path string

	// Name is the collection name.
	Name string
}

// Index implements driven.SearchIndex on a chromem collection.
type Index struct {
	db   *chromem.DB
	name string

	mu         sync.RWMutex
	collection *chromem.Collection
}

// New opens (or creates) the database at cfg.Path.
func New(cfg Config) (*Index, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidConfig)
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	return &Index{db: db, name: cfg.Name}, nil
}

// Name identifies the backend.
func (i *Index) Name() string {
	return "chromem"
}

// EnsureSchema creates the collection if it does not exist.
func (i *Index) EnsureSchema(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	c, err := i.db.GetOrCreateCollection(i.name, map[string]string{
		"hnsw:space": "cosine",
		"dimensions": strconv.Itoa(dimensions),
	}, nil)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", i.name, err)
	}
	i.collection = c
	return nil
}

// Upsert writes documents, overwriting any with the same ID.
func (i *Index) Upsert(ctx context.Context, docs []domain.ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	c := i.getCollection()
	if c == nil {
		return fmt.Errorf("collection %s does not exist", i.name)
	}

	records := make([]chromem.Document, len(docs))
	for n, d := range docs {
		if len(d.Embedding) == 0 {
			return fmt.Errorf("%w: document %s has no embedding", domain.ErrInvalidInput, d.ID)
		}
		records[n] = chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata: map[string]string{
				metaSourceType:   d.SourceType,
				metaSpaceKey:     d.CollectionKey,
				metaPageID:       d.SourcePageID,
				metaPageTitle:    d.SourceTitle,
				metaSectionTitle: d.SectionTitle,
				metaURL:          d.URL,
				metaLastUpdated:  d.LastUpdated,
				metaVersion:      strconv.Itoa(d.Version),
			},
		}
	}

	if err := c.AddDocuments(ctx, records, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search oversamples vector candidates and re-ranks them with keyword matches.
// A missing or empty collection yields no results.
func (i *Index) Search(ctx context.Context, query driven.SearchQuery) ([]domain.SourceDocument, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is required", domain.ErrInvalidInput)
	}

	c := i.getCollection()
	if c == nil {
		return []domain.SourceDocument{}, nil
	}

	n := hybrid.CandidateCount(query.TopK, c.Count())
	if n == 0 {
		return []domain.SourceDocument{}, nil
	}

	var where map[string]string
	if query.SourceType != "" {
		where = map[string]string{metaSourceType: query.SourceType}
	}

	results, err := c.QueryEmbedding(ctx, query.Vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	vector := make([]hybrid.Hit, len(results))
	for n, r := range results {
		vector[n] = hybrid.Hit{ID: r.ID, Doc: toSourceDocument(r)}
	}

	return hybrid.Fuse(query.TopK, vector, hybrid.KeywordRank(query.Text, vector)), nil
}

// Close is a no-op; chromem persists every write.
func (i *Index) Close() error {
	return nil
}

// getCollection returns the cached collection, or loads a persisted one.
func (i *Index) getCollection() *chromem.Collection {
	i.mu.RLock()
	c := i.collection
	i.mu.RUnlock()
	if c != nil {
		return c
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.collection == nil {
		i.collection = i.db.GetCollection(i.name, nil)
	}
	return i.collection
}

func toSourceDocument(r chromem.Result) domain.SourceDocument {
	id := r.Metadata[metaPageID]
	if id == "" {
		id = r.ID
	}
	return domain.SourceDocument{
		SourceType:   r.Metadata[metaSourceType],
		SourceID:     id,
		Title:        r.Metadata[metaPageTitle],
		ChunkText:    r.Content,
		URL:          r.Metadata[metaURL],
		SectionTitle: r.Metadata[metaSectionTitle],
		Score:        float64(r.Similarity),
	}
}
