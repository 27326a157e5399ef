// Package embedding defines the C2 contract: produce fixed-dimension
// vectors for one or many strings.
package embedding

import (
	"context"

	"github.com/aicontext-go/core/errs"
)

// Vector is a dense embedding of fixed, positive dimension for a given
// provider. Immutable once produced and shared by reference.
type Vector []float32

// BatchResult is one element of a batch embedding stream, preserving the
// original input order via Index.
type BatchResult struct {
	Index  int
	Vector Vector
	Err    error
}

// Provider produces embeddings for text. Implementations must return
// vectors of a constant positive dimension.
type Provider interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) (Vector, error)
	// EmbedBatch returns a channel of BatchResult in input order. The
	// channel is closed when all texts have been processed or ctx is
	// cancelled; partial output up to cancellation is valid.
	EmbedBatch(ctx context.Context, texts []string) <-chan BatchResult
}

// EmbedBatchSlice drains Provider.EmbedBatch into an ordered slice,
// convenient for callers that don't need streaming consumption. Missing
// (cancelled) entries are left as nil vectors.
func EmbedBatchSlice(ctx context.Context, p Provider, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for res := range p.EmbedBatch(ctx, texts) {
		if res.Err != nil {
			return out, errs.Wrap(errs.ProviderFailure, "batch embedding failed", res.Err)
		}
		if res.Index < 0 || res.Index >= len(out) {
			continue
		}
		out[res.Index] = res.Vector
	}
	return out, errs.FromContext(ctx)
}
