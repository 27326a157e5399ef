package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aicontext-go/core/embedding"
	"github.com/aicontext-go/core/splitter"
)

// wordTokenizer counts tokens as whitespace-separated words, giving tests
// exact, predictable counts independent of any real BPE vocabulary.
type wordTokenizer struct{}

func (wordTokenizer) CountTokens(text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return len(strings.Fields(text)), nil
}

func (w wordTokenizer) CountTokensContext(_ context.Context, text string) (int, error) {
	return w.CountTokens(text)
}

// hashEmbedder derives a small deterministic vector from text content so
// that distinct sentences produce distinct (and distance-meaningful)
// embeddings, without needing a real model.
type hashEmbedder struct{ dim int }

func (h hashEmbedder) Embed(_ context.Context, text string) (embedding.Vector, error) {
	v := make(embedding.Vector, h.dim)
	for i, r := range text {
		v[i%h.dim] += float32(r)
	}
	if len(text) == 0 {
		v[0] = 1
	}
	return v, nil
}

func (h hashEmbedder) EmbedBatch(ctx context.Context, texts []string) <-chan embedding.BatchResult {
	out := make(chan embedding.BatchResult)
	go func() {
		defer close(out)
		for i, t := range texts {
			v, err := h.Embed(ctx, t)
			select {
			case out <- embedding.BatchResult{Index: i, Vector: v, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func newTestChunker(t *testing.T, cfg ChunkingConfig) *Chunker {
	t.Helper()
	c, err := New(cfg, wordTokenizer{}, hashEmbedder{dim: 8}, splitter.NewSentenceSplitter(nil), nil)
	require.NoError(t, err)
	return c
}

func TestBasicChunking(t *testing.T) {
	c := newTestChunker(t, DefaultChunkingConfig())
	text := "Technology shapes our world. Software evolves. AI advances. Business adapts."
	chunks, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	require.LessOrEqual(t, len(chunks), 4)

	var rebuilt strings.Builder
	for _, ch := range chunks {
		tc := ch.Metadata[MetaTokenCount].(int)
		require.GreaterOrEqual(t, tc, 0)
		require.LessOrEqual(t, tc, 512)
		if rebuilt.Len() > 0 {
			rebuilt.WriteString(" ")
		}
		rebuilt.WriteString(ch.Text)
	}
	for _, sentence := range []string{"Technology shapes our world.", "Software evolves.", "AI advances.", "Business adapts."} {
		require.Contains(t, rebuilt.String(), sentence)
	}
}

func TestEmptyInputYieldsNoChunks(t *testing.T) {
	c := newTestChunker(t, DefaultChunkingConfig())
	chunks, err := c.ChunkAll(context.Background(), "   ", nil)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestDeterministicRechunking(t *testing.T) {
	c := newTestChunker(t, DefaultChunkingConfig())
	text := "The cat sat. The dog ran. Birds flew high. Fish swam deep. The sun set slowly."
	first, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	second, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestDegenerateFewGroupsUsesTokenGreedyFallback(t *testing.T) {
	cfg := DefaultChunkingConfig()
	cfg.MaxTokensPerChunk = 4
	c := newTestChunker(t, cfg)
	chunks, err := c.ChunkAll(context.Background(), "One two. Three four.", nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		requireWithinBoundsOrFallback(t, ch, 4)
	}
}

func TestOversizedSingleSegmentIsFallback(t *testing.T) {
	cfg := DefaultChunkingConfig()
	cfg.MaxTokensPerChunk = 3
	cfg.MinTokensPerChunk = 1
	c := newTestChunker(t, cfg)
	text := strings.Repeat("word ", 20) + "."
	chunks, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		requireWithinBoundsOrFallback(t, ch, 3)
	}
}

// TestDegenerateFallbackFlagsOversizedLeadingSegment reproduces the case
// where the first of two segments alone exceeds MaxTokensPerChunk: the
// degenerate (len(groups) < 3) tokenGreedyFallback path must still emit it
// either under budget or flagged IsFallback, never both over budget and
// unflagged.
func TestDegenerateFallbackFlagsOversizedLeadingSegment(t *testing.T) {
	cfg := DefaultChunkingConfig()
	cfg.MaxTokensPerChunk = 3
	cfg.MinTokensPerChunk = 1
	c := newTestChunker(t, cfg)
	text := strings.Repeat("big ", 10) + ". Small bit."
	chunks, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		requireWithinBoundsOrFallback(t, ch, 3)
	}
}

// TestOversizedSingleSegmentGroupFlagPropagates checks that the embed-time
// isFallback signal computed for a single-segment sentence group (the whole
// document, here, tokenizing well past MaxTokensPerChunk) survives into the
// metadata of every chunk split out of it, even once those splits land back
// under budget.
func TestOversizedSingleSegmentGroupFlagPropagates(t *testing.T) {
	cfg := DefaultChunkingConfig()
	cfg.MaxTokensPerChunk = 3
	cfg.MinTokensPerChunk = 1
	c := newTestChunker(t, cfg)
	text := strings.Repeat("word ", 20) + "."
	chunks, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		isFallback, _ := ch.Metadata[MetaIsFallback].(bool)
		require.True(t, isFallback, "chunk split from an oversized single-segment group should stay flagged IsFallback")
	}
}

func requireWithinBoundsOrFallback(t *testing.T, ch TextChunk, max int) {
	t.Helper()
	tc := ch.Metadata[MetaTokenCount].(int)
	isFallback, _ := ch.Metadata[MetaIsFallback].(bool)
	require.True(t, tc <= max || isFallback,
		"chunk token_count=%d exceeds max=%d without IsFallback set", tc, max)
}

func TestCachingStoresGroupEmbeddings(t *testing.T) {
	cfg := DefaultChunkingConfig()
	c := newTestChunker(t, cfg)
	text := "Repeat sentence here. Repeat sentence here. Repeat sentence here. Repeat sentence here."
	_, err := c.ChunkAll(context.Background(), text, nil)
	require.NoError(t, err)
	require.Greater(t, c.cache.Count(), 0)
}

func TestMetadataReservedKeysWinOverCaller(t *testing.T) {
	c := newTestChunker(t, DefaultChunkingConfig())
	text := "First sentence here. Second sentence here. Third sentence here. Fourth one too."
	chunks, err := c.ChunkAll(context.Background(), text, map[string]any{
		MetaTokenCount: "caller-should-lose",
		"source":       "unit-test",
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		require.IsType(t, 0, ch.Metadata[MetaTokenCount])
		require.Equal(t, "unit-test", ch.Metadata["source"])
	}
}

func TestCancellationStopsChunking(t *testing.T) {
	c := newTestChunker(t, DefaultChunkingConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ChunkAll(ctx, "Some text. More text. Even more text here now.", nil)
	require.Error(t, err)
}

func TestConstructorValidatesDependencies(t *testing.T) {
	_, err := New(DefaultChunkingConfig(), nil, hashEmbedder{dim: 4}, splitter.NewSentenceSplitter(nil), nil)
	require.Error(t, err)
	_, err = New(DefaultChunkingConfig(), wordTokenizer{}, nil, splitter.NewSentenceSplitter(nil), nil)
	require.Error(t, err)
	_, err = New(DefaultChunkingConfig(), wordTokenizer{}, hashEmbedder{dim: 4}, nil, nil)
	require.Error(t, err)
}
