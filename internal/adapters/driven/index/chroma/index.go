// Package chroma provides a search index backed by a remote Chroma server.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index/hybrid"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.SearchIndex = (*Index)(nil)

// DefaultURL is the local Chroma server address.
const DefaultURL = "http://localhost:8000"

// Config holds configuration for the Chroma index.
type Config struct {
	// URL is the Chroma server base URL.
	URL string

	// Name is the collection name.
	Name string
}

// Index implements driven.SearchIndex on a Chroma collection.
type Index struct {
	client chromago.Client
	name   string

	mu         sync.Mutex
	collection chromago.Collection
}

// New connects a client to the Chroma server. No request is made until first use.
func New(cfg Config) (*Index, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidConfig)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}

	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}

	return &Index{client: client, name: cfg.Name}, nil
}

// Name identifies the backend.
func (i *Index) Name() string {
	return "chroma"
}

// EnsureSchema creates the collection if it does not exist.
func (i *Index) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	c, err := i.client.GetOrCreateCollection(ctx, i.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewIntAttribute("dimensions", int64(dimensions)),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", i.name, err)
	}

	i.mu.Lock()
	i.collection = c
	i.mu.Unlock()
	return nil
}

// Upsert writes documents, overwriting any with the same ID.
func (i *Index) Upsert(ctx context.Context, docs []domain.ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	c, err := i.getCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]chromago.DocumentID, len(docs))
	texts := make([]string, len(docs))
	vectors := make([]embeddings.Embedding, len(docs))
	metadatas := make([]chromago.DocumentMetadata, len(docs))
	for n, d := range docs {
		ids[n] = chromago.DocumentID(d.ID)
		texts[n] = d.Content
		vectors[n] = embeddings.NewEmbeddingFromFloat32(d.Embedding)
		metadatas[n] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source_type", d.SourceType),
			chromago.NewStringAttribute("space_key", d.CollectionKey),
			chromago.NewStringAttribute("page_id", d.SourcePageID),
			chromago.NewStringAttribute("page_title", d.SourceTitle),
			chromago.NewStringAttribute("section_title", d.SectionTitle),
			chromago.NewStringAttribute("url", d.URL),
			chromago.NewStringAttribute("last_updated", d.LastUpdated),
			chromago.NewIntAttribute("version", int64(d.Version)),
		)
	}

	err = c.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(docs), err)
	}
	return nil
}

// Search oversamples vector candidates and re-ranks them with keyword matches.
func (i *Index) Search(ctx context.Context, query driven.SearchQuery) ([]domain.SourceDocument, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is required", domain.ErrInvalidInput)
	}

	c, err := i.getCollection(ctx)
	if err != nil {
		return nil, err
	}

	total, err := c.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count collection: %w", err)
	}
	n := hybrid.CandidateCount(query.TopK, total)
	if n == 0 {
		return []domain.SourceDocument{}, nil
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(query.Vector)),
		chromago.WithNResults(n),
	}
	if query.SourceType != "" {
		opts = append(opts, chromago.WithWhereQuery(chromago.EqString("source_type", query.SourceType)))
	}

	results, err := c.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	var vector []hybrid.Hit
	idGroups := results.GetIDGroups()
	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	if len(idGroups) > 0 {
		for n, id := range idGroups[0] {
			var text string
			if len(docGroups) > 0 && n < len(docGroups[0]) && docGroups[0][n] != nil {
				text = docGroups[0][n].ContentString()
			}
			var meta chromago.DocumentMetadata
			if len(metaGroups) > 0 && n < len(metaGroups[0]) {
				meta = metaGroups[0][n]
			}
			vector = append(vector, hybrid.Hit{
				ID:  string(id),
				Doc: toSourceDocument(string(id), text, metadataMap(meta)),
			})
		}
	}

	return hybrid.Fuse(query.TopK, vector, hybrid.KeywordRank(query.Text, vector)), nil
}

// Close releases the HTTP client.
func (i *Index) Close() error {
	return i.client.Close()
}

func (i *Index) getCollection(ctx context.Context) (chromago.Collection, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.collection != nil {
		return i.collection, nil
	}
	c, err := i.client.GetCollection(ctx, i.name)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", i.name, err)
	}
	i.collection = c
	return c, nil
}

// metadataMap flattens chroma metadata through its JSON form, which is the
// only accessor stable across attribute types.
func metadataMap(meta chromago.DocumentMetadata) map[string]any {
	out := map[string]any{}
	if meta == nil {
		return out
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func toSourceDocument(id, text string, meta map[string]any) domain.SourceDocument {
	str := func(key string) string {
		s, _ := meta[key].(string)
		return s
	}
	sourceID := str("page_id")
	if sourceID == "" {
		sourceID = id
	}
	return domain.SourceDocument{
		SourceType:   str("source_type"),
		SourceID:     sourceID,
		Title:        str("page_title"),
		ChunkText:    text,
		URL:          str("url"),
		SectionTitle: str("section_title"),
	}
}
