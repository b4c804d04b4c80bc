package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value is missing or out of range.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown provider, backend or source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval and ingestion both require embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the search index is not configured.
	// Knowledge-base questions escalate instead of retrieving.
	ErrSearchUnavailable = errors.New("search index unavailable")

	// ErrConnectorUnavailable indicates the page source is not configured.
	ErrConnectorUnavailable = errors.New("page source unavailable")

	// ErrRateLimited indicates the upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
