// Package local provides an in-process embedding service that runs an ONNX
// sentence transformer through hugot's pure Go backend.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions = 384
	onnxFilePath      = "onnx/model.onnx"
	pipelineName      = "helpdesk-embedder"
)

// Config holds configuration for the local embedding service.
type Config struct {
	// Model is the Hugging Face model name (default: all-MiniLM-L6-v2).
	Model string

	// ModelDir caches downloaded models (required).
	ModelDir string

	// Dimensions is the embedding vector size (default: 384).
	Dimensions int
}

// EmbeddingService generates embeddings in-process.
type EmbeddingService struct {
	mu         sync.Mutex
	session    *hugot.Session
	run        func(texts []string) ([][]float32, error)
	model      string
	dimensions int
}

// NewEmbeddingService downloads the model when it is not cached yet and
// starts a hugot session.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.ModelDir == "" {
		return nil, errors.New("local: model directory is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	modelPath, err := PrepareModel(cfg.Model, cfg.ModelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("local: create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      pipelineName,
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("local: create pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("local: create pipeline: %w", err)
	}

	return &EmbeddingService{
		session:    session,
		run:        runner(pipeline),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func runner(p *pipelines.FeatureExtractionPipeline) func([]string) ([][]float32, error) {
	return func(texts []string) ([][]float32, error) {
		out, err := p.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return out.Embeddings, nil
	}
}

// PrepareModel returns the cached model path, downloading the model first
// when it is missing.
func PrepareModel(model, dir string) (string, error) {
	modelPath := ModelPath(model, dir)
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("local: stat model: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("local: create model directory: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = onnxFilePath
	downloaded, err := hugot.DownloadModel(model, dir, opts)
	if err != nil {
		return "", fmt.Errorf("local: download model %s: %w", model, err)
	}
	return downloaded, nil
}

// ModelPath is where a model is cached under dir.
func ModelPath(model, dir string) string {
	return filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch runs the pipeline over texts. Calls are serialised because the
// pipeline is not safe for concurrent use.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vecs, err := s.run(texts)
	if err != nil {
		return nil, fmt.Errorf("local: run pipeline: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("local: got %d embeddings for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping reports whether the session is still open.
func (s *EmbeddingService) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return errors.New("local: embedding session closed")
	}
	return nil
}

// Close destroys the hugot session.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = nil
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
