// Package pgvector provides a hybrid search index on PostgreSQL with the
// pgvector extension. Keyword ranking uses a generated tsvector column and
// vector ranking uses cosine distance. Both rankings are fused per query.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/index/hybrid"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.SearchIndex = (*Index)(nil)

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// Config holds configuration for the pgvector index.
type Config struct {
	// DSN is the PostgreSQL connection string.
	DSN string

	// Name is the table name. Characters outside [a-z0-9_] become underscores.
	Name string
}

// Index implements driven.SearchIndex on one PostgreSQL table.
type Index struct {
	db    *sql.DB
	table string
}

// New opens a connection pool and verifies the server is reachable.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidConfig)
	}
	table := TableName(cfg.Name)
	if table == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidConfig)
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Index{db: db, table: table}, nil
}

// TableName maps an index name onto a safe PostgreSQL identifier.
func TableName(name string) string {
	return strings.Trim(unsafeIdent.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// Name identifies the backend.
func (i *Index) Name() string {
	return "pgvector"
}

// EnsureSchema creates the extension, table and indexes if they do not exist.
func (i *Index) EnsureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	t := pq.QuoteIdentifier(i.table)
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id            TEXT PRIMARY KEY,
			content       TEXT NOT NULL,
			embedding     vector(%d) NOT NULL,
			source_type   TEXT NOT NULL DEFAULT '',
			space_key     TEXT NOT NULL DEFAULT '',
			page_id       TEXT NOT NULL DEFAULT '',
			page_title    TEXT NOT NULL DEFAULT '',
			section_title TEXT NOT NULL DEFAULT '',
			url           TEXT NOT NULL DEFAULT '',
			last_updated  TEXT NOT NULL DEFAULT '',
			version       INTEGER NOT NULL DEFAULT 0,
			content_tsv   tsvector GENERATED ALWAYS AS (
				to_tsvector('english', page_title || ' ' || section_title || ' ' || content)
			) STORED
		)`, t, dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (content_tsv)`,
			pq.QuoteIdentifier(i.table+"_tsv_idx"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pq.QuoteIdentifier(i.table+"_embedding_idx"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (source_type)`,
			pq.QuoteIdentifier(i.table+"_source_type_idx"), t),
	}

	for _, stmt := range stmts {
		if _, err := i.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert writes documents in one transaction, overwriting any with the same ID.
func (i *Index) Upsert(ctx context.Context, docs []domain.ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding, source_type, space_key, page_id,
			page_title, section_title, url, last_updated, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			source_type = EXCLUDED.source_type,
			space_key = EXCLUDED.space_key,
			page_id = EXCLUDED.page_id,
			page_title = EXCLUDED.page_title,
			section_title = EXCLUDED.section_title,
			url = EXCLUDED.url,
			last_updated = EXCLUDED.last_updated,
			version = EXCLUDED.version`, pq.QuoteIdentifier(i.table)))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		_, err := stmt.ExecContext(ctx,
			d.ID, d.Content, pgvector.NewVector(d.Embedding), d.SourceType, d.CollectionKey,
			d.SourcePageID, d.SourceTitle, d.SectionTitle, d.URL, d.LastUpdated, d.Version,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Search runs a vector query and a full-text query and fuses their rankings.
func (i *Index) Search(ctx context.Context, query driven.SearchQuery) ([]domain.SourceDocument, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is required", domain.ErrInvalidInput)
	}
	limit := query.TopK * hybrid.CandidateFactor
	t := pq.QuoteIdentifier(i.table)

	vector, err := i.query(ctx, fmt.Sprintf(`
		SELECT id, content, source_type, page_id, page_title, section_title, url,
			1 - (embedding <=> $1) AS score
		FROM %s
		WHERE ($2 = '' OR source_type = $2)
		ORDER BY embedding <=> $1
		LIMIT $3`, t),
		pgvector.NewVector(query.Vector), query.SourceType, limit)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	var keyword []hybrid.Hit
	if strings.TrimSpace(query.Text) != "" {
		keyword, err = i.query(ctx, fmt.Sprintf(`
			SELECT id, content, source_type, page_id, page_title, section_title, url,
				ts_rank(content_tsv, plainto_tsquery('english', $1)) AS score
			FROM %s
			WHERE content_tsv @@ plainto_tsquery('english', $1)
				AND ($2 = '' OR source_type = $2)
			ORDER BY score DESC
			LIMIT $3`, t),
			query.Text, query.SourceType, limit)
		if err != nil {
			return nil, fmt.Errorf("keyword query: %w", err)
		}
	}

	return hybrid.Fuse(query.TopK, vector, keyword), nil
}

func (i *Index) query(ctx context.Context, q string, args ...any) ([]hybrid.Hit, error) {
	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []hybrid.Hit
	for rows.Next() {
		var (
			id string
			d  domain.SourceDocument
		)
		if err := rows.Scan(&id, &d.ChunkText, &d.SourceType, &d.SourceID, &d.Title,
			&d.SectionTitle, &d.URL, &d.Score); err != nil {
			return nil, err
		}
		if d.SourceID == "" {
			d.SourceID = id
		}
		hits = append(hits, hybrid.Hit{ID: id, Doc: d})
	}
	return hits, rows.Err()
}

// Close closes the connection pool.
func (i *Index) Close() error {
	return i.db.Close()
}
