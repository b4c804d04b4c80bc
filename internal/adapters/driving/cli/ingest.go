package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// errIngestFailed is returned when a run finishes with stage errors.
var errIngestFailed = errors.New("ingestion finished with errors")

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the knowledge base into the search index",
	Long: `Fetches every page of the configured source, splits it into sections and
chunks, embeds the chunks and upserts them into the search index.

Chunks are upserted by id, so re-running is safe. Chunks that a page no
longer produces (for example after a section is deleted) stay in the index
until it is rebuilt.

Use --watch with the filesystem source to re-ingest whenever files change.`,
	Annotations: map[string]string{needs: needsPipeline},
	RunE:        runIngest,
}

var ingestStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show the last ingestion run",
	Annotations: map[string]string{needs: needsPipeline},
	RunE:        runIngestStatus,
}

func init() {
	ingestCmd.Flags().Bool("dry-run", false, "fetch and chunk without embedding or uploading")
	ingestCmd.Flags().Bool("skip-index-create", false, "do not create the index schema")
	ingestCmd.Flags().Bool("watch", false, "re-ingest when the source changes")
	ingestCmd.AddCommand(ingestStatusCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingestion service not configured: set source.kind and its settings")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	skipCreate, _ := cmd.Flags().GetBool("skip-index-create")
	watch, _ := cmd.Flags().GetBool("watch")
	opts := domain.IngestOptions{DryRun: dryRun, SkipIndexCreate: skipCreate}

	if !watch {
		stats := ingestService.Run(cmd.Context(), opts)
		printStats(cmd, stats)
		if stats.Failed() {
			return errIngestFailed
		}
		return nil
	}

	watchable, ok := pageSource.(driven.WatchablePageSource)
	if !ok {
		return fmt.Errorf("%w: source does not support --watch", domain.ErrUnsupportedType)
	}
	return watchAndIngest(cmd, watchable, opts)
}

// watchAndIngest runs once, then again after every change notification
// until the context is cancelled.
func watchAndIngest(cmd *cobra.Command, source driven.WatchablePageSource, opts domain.IngestOptions) error {
	ctx := cmd.Context()
	changes, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch source: %w", err)
	}

	printStats(cmd, ingestService.Run(ctx, opts))
	cmd.Println("Watching for changes (Ctrl+C to stop)...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			appLogger.Info("source changed, re-ingesting")
			printStats(cmd, ingestService.Run(ctx, opts))
		}
	}
}

func runIngestStatus(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingestion service not configured: set source.kind and its settings")
	}
	stats, err := ingestService.LastRun(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No ingestion runs recorded.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("last run: %w", err)
	}
	printStats(cmd, *stats)
	return nil
}

func printStats(cmd *cobra.Command, stats domain.IngestStats) {
	cmd.Printf("Run %s (%s)\n", stats.RunID, stats.CollectionKey)
	cmd.Printf("  Pages fetched:        %d\n", stats.PagesFetched)
	cmd.Printf("  Sections extracted:   %d\n", stats.SectionsExtracted)
	cmd.Printf("  Chunks created:       %d\n", stats.ChunksCreated)
	cmd.Printf("  Embeddings generated: %d\n", stats.EmbeddingsGenerated)
	cmd.Printf("  Documents uploaded:   %d\n", stats.DocumentsUploaded)
	if !stats.FinishedAt.IsZero() {
		cmd.Printf("  Duration:             %s\n", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond))
	}
	for _, e := range stats.Errors {
		cmd.Printf("  Error: %s\n", e)
	}
}
