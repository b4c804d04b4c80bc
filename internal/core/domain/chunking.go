package domain

import "fmt"

// ChunkingConfig bounds chunk sizes, measured in tokens.
type ChunkingConfig struct {
	// TargetTokens is the size of the pieces a long paragraph is cut into.
	TargetTokens int

	// MinTokens is the size below which a chunk is merged with a neighbour when possible.
	MinTokens int

	// MaxTokens is a hard upper bound for every emitted chunk.
	MaxTokens int

	// OverlapMin is the minimum number of words carried across a split.
	OverlapMin int

	// OverlapMax is the maximum number of words carried across a split.
	OverlapMax int
}

// DefaultChunkingConfig returns the standard knowledge-base chunk sizes.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		TargetTokens: 500,
		MinTokens:    400,
		MaxTokens:    600,
		OverlapMin:   50,
		OverlapMax:   100,
	}
}

// Validate checks the bounds are internally consistent.
func (c ChunkingConfig) Validate() error {
	switch {
	case c.MaxTokens <= 0:
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	case c.MinTokens < 0 || c.MinTokens > c.MaxTokens:
		return fmt.Errorf("%w: min_tokens must be between 0 and max_tokens", ErrInvalidConfig)
	case c.TargetTokens < c.MinTokens || c.TargetTokens > c.MaxTokens:
		return fmt.Errorf("%w: target_tokens must be between min_tokens and max_tokens", ErrInvalidConfig)
	case c.OverlapMin < 0 || c.OverlapMax < c.OverlapMin:
		return fmt.Errorf("%w: overlap_min must not exceed overlap_max", ErrInvalidConfig)
	}
	return nil
}
