package embedding

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aicontext-go/core/errs"
)

// RateLimited wraps a Provider so that Embed and each EmbedBatch item wait
// on a token-bucket limiter before calling through. Grounded on the
// per-caller rate.Limiter pattern used for budget enforcement elsewhere in
// the domain stack; here it simply bounds calls/sec to an external
// embedding provider. A nil logger defaults to zap.NewNop().
func RateLimited(p Provider, eventsPerSecond float64, burst int, logger *zap.Logger) Provider {
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rateLimitedProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst),
		logger:  logger,
	}
}

type rateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	logger  *zap.Logger
}

func (r *rateLimitedProvider) Embed(ctx context.Context, text string) (Vector, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Debug("rate limiter wait cancelled", zap.Error(err))
		return nil, errs.Wrap(errs.Cancelled, "rate limiter wait", err)
	}
	return r.inner.Embed(ctx, text)
}

func (r *rateLimitedProvider) EmbedBatch(ctx context.Context, texts []string) <-chan BatchResult {
	out := make(chan BatchResult)
	go func() {
		defer close(out)
		for i, text := range texts {
			if err := r.limiter.Wait(ctx); err != nil {
				r.logger.Debug("rate limiter wait cancelled", zap.Int("index", i), zap.Error(err))
				out <- BatchResult{Index: i, Err: errs.Wrap(errs.Cancelled, "rate limiter wait", err)}
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			v, err := r.inner.Embed(ctx, text)
			out <- BatchResult{Index: i, Vector: v, Err: err}
			if err != nil {
				return
			}
		}
	}()
	return out
}
