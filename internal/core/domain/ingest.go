package domain

import "time"

// IngestStats summarises one ingestion run.
type IngestStats struct {
	RunID               string
	CollectionKey       string
	PagesFetched        int
	SectionsExtracted   int
	ChunksCreated       int
	EmbeddingsGenerated int
	DocumentsUploaded   int
	Errors              []string
	StartedAt           time.Time
	FinishedAt          time.Time
}

// Failed returns true if any stage recorded an error.
func (s IngestStats) Failed() bool {
	return len(s.Errors) > 0
}

// Duration returns how long the run took.
func (s IngestStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// IngestOptions tunes a single ingestion run.
type IngestOptions struct {
	// DryRun runs every stage up to the index writes and stops there.
	DryRun bool

	// SkipIndexCreate skips schema creation; useful on repeated runs.
	SkipIndexCreate bool
}
