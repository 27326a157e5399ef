package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	dim int
}

func (f *fakeProvider) Embed(_ context.Context, text string) (Vector, error) {
	v := make(Vector, f.dim)
	for i := range v {
		v[i] = float32(len(text) + i)
	}
	return v, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) <-chan BatchResult {
	out := make(chan BatchResult)
	go func() {
		defer close(out)
		for i, t := range texts {
			select {
			case <-ctx.Done():
				return
			default:
			}
			v, _ := f.Embed(ctx, t)
			out <- BatchResult{Index: i, Vector: v}
		}
	}()
	return out
}

func TestEmbedBatchSlicePreservesOrder(t *testing.T) {
	p := &fakeProvider{dim: 3}
	vs, err := EmbedBatchSlice(context.Background(), p, []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vs, 3)
	require.NotNil(t, vs[0])
	require.NotNil(t, vs[2])
	require.Equal(t, Vector{1, 2, 3}, vs[0])
	require.Equal(t, Vector{2, 3, 4}, vs[1])
	require.Equal(t, Vector{3, 4, 5}, vs[2])
}

type erroringProvider struct{}

func (erroringProvider) Embed(context.Context, string) (Vector, error) {
	return nil, errors.New("boom")
}

func (erroringProvider) EmbedBatch(ctx context.Context, texts []string) <-chan BatchResult {
	out := make(chan BatchResult, 1)
	out <- BatchResult{Index: 0, Err: errors.New("boom")}
	close(out)
	return out
}

func TestEmbedBatchSlicePropagatesProviderFailure(t *testing.T) {
	_, err := EmbedBatchSlice(context.Background(), erroringProvider{}, []string{"x"})
	require.Error(t, err)
}

func TestRateLimitedPassesCallsWithinBurst(t *testing.T) {
	p := &fakeProvider{dim: 2}
	limited := RateLimited(p, 1000, 10, nil)
	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := limited.Embed(context.Background(), "x")
		require.NoError(t, err)
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestRateLimitedRespectsCancellation(t *testing.T) {
	p := &fakeProvider{dim: 1}
	limited := RateLimited(p, 0.001, 1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	// First call consumes the single burst token immediately.
	_, err := limited.Embed(context.Background(), "x")
	require.NoError(t, err)
	// Second call must wait far longer than the limiter allows for refill.
	_, err = limited.Embed(ctx, "y")
	require.Error(t, err)
}
