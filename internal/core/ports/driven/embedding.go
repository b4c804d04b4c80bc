package driven

import "context"

// EmbeddingService turns text into vectors. The same service must embed
// chunks at ingestion and questions at retrieval.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions must equal the dimensions the search index was created with.
	Dimensions() int

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}
