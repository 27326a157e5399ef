// Package chunker implements the semantic chunker (C6): split a document
// into semantically coherent, token-bounded chunks using embedding
// breakpoint detection with robust fallbacks.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aicontext-go/core/cache"
	"github.com/aicontext-go/core/embedding"
	"github.com/aicontext-go/core/errs"
	"github.com/aicontext-go/core/splitter"
	"github.com/aicontext-go/core/tokenizer"
)

// Reserved metadata keys. Caller-supplied metadata keys win for everything
// else; these always win for themselves.
const (
	MetaTokenCount   = "TokenCount"
	MetaSegmentCount = "SegmentCount"
	MetaIsFallback   = "IsFallback"
)

// ChunkingConfig controls the chunker's bounds and behavior.
type ChunkingConfig struct {
	MaxTokensPerChunk             int
	MinTokensPerChunk             int
	BreakpointPercentileThreshold float64
	BufferSize                    int
	EnableEmbeddingCaching        bool
	MaxCacheSize                  int
}

// DefaultChunkingConfig returns the documented defaults.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		MaxTokensPerChunk:             512,
		MinTokensPerChunk:             10,
		BreakpointPercentileThreshold: 0.75,
		BufferSize:                    1,
		EnableEmbeddingCaching:        true,
		MaxCacheSize:                  1000,
	}
}

func (c ChunkingConfig) withDefaults() ChunkingConfig {
	d := DefaultChunkingConfig()
	if c.MaxTokensPerChunk <= 0 {
		c.MaxTokensPerChunk = d.MaxTokensPerChunk
	}
	if c.MinTokensPerChunk <= 0 {
		c.MinTokensPerChunk = d.MinTokensPerChunk
	}
	if c.BreakpointPercentileThreshold <= 0 {
		c.BreakpointPercentileThreshold = d.BreakpointPercentileThreshold
	}
	if c.BufferSize < 0 {
		c.BufferSize = d.BufferSize
	}
	if c.MaxCacheSize <= 0 {
		c.MaxCacheSize = d.MaxCacheSize
	}
	return c
}

// TextChunk is a contiguous, token-bounded emission carrying metadata.
type TextChunk struct {
	Text     string
	Start    int
	End      int
	Metadata map[string]any
}

// ChunkOrErr is one element of the chunker's streaming output.
type ChunkOrErr struct {
	Chunk TextChunk
	Err   error
}

// Chunker turns long text into semantic chunks.
type Chunker struct {
	cfg       ChunkingConfig
	tokenizer tokenizer.Tokenizer
	embedder  embedding.Provider
	splitter  splitter.Splitter
	cache     *cache.Cache
	logger    *zap.Logger
}

// New constructs a Chunker. tok, embedder, and split must be non-nil.
func New(cfg ChunkingConfig, tok tokenizer.Tokenizer, embedder embedding.Provider, split splitter.Splitter, logger *zap.Logger) (*Chunker, error) {
	if tok == nil {
		return nil, errs.New(errs.InvalidArgument, "tokenizer is required")
	}
	if embedder == nil {
		return nil, errs.New(errs.InvalidArgument, "embedding provider is required")
	}
	if split == nil {
		return nil, errs.New(errs.InvalidArgument, "splitter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	var c *cache.Cache
	if cfg.EnableEmbeddingCaching {
		c = cache.New(cfg.MaxCacheSize, logger)
	}
	return &Chunker{cfg: cfg, tokenizer: tok, embedder: embedder, splitter: split, cache: c, logger: logger}, nil
}

// Chunk runs the full pipeline over text and streams the resulting chunks.
// metadata, if non-nil, is copied into every emitted chunk's Metadata
// before the reserved keys are applied (caller keys win for any
// non-reserved name; reserved keys always win for themselves). Restartable
// by calling Chunk again on the same input.
func (c *Chunker) Chunk(ctx context.Context, text string, metadata map[string]any) (<-chan ChunkOrErr, error) {
	out := make(chan ChunkOrErr)
	if strings.TrimSpace(text) == "" {
		close(out)
		return out, nil
	}

	runID := uuid.New().String()
	logger := c.logger.With(zap.String("chunk_run_id", runID))

	go func() {
		defer close(out)
		chunks, err := c.run(ctx, text, logger)
		if err != nil {
			select {
			case out <- ChunkOrErr{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		for _, ch := range chunks {
			if metadata != nil {
				merged := make(map[string]any, len(metadata)+len(ch.Metadata))
				for k, v := range metadata {
					if k == MetaTokenCount || k == MetaSegmentCount || k == MetaIsFallback {
						continue // reserved keys come only from the chunk
					}
					merged[k] = v
				}
				for k, v := range ch.Metadata {
					merged[k] = v // reserved keys, applied last, always win
				}
				ch.Metadata = merged
			}
			select {
			case out <- ChunkOrErr{Chunk: ch}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ChunkAll drains Chunk into a slice and a single error, convenient for
// callers (and tests) that don't need streaming consumption.
func (c *Chunker) ChunkAll(ctx context.Context, text string, metadata map[string]any) ([]TextChunk, error) {
	ch, err := c.Chunk(ctx, text, metadata)
	if err != nil {
		return nil, err
	}
	var out []TextChunk
	for item := range ch {
		if item.Err != nil {
			return out, item.Err
		}
		out = append(out, item.Chunk)
	}
	return out, errs.FromContext(ctx)
}
