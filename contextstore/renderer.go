package contextstore

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/aicontext-go/core/embedding"
	"github.com/aicontext-go/core/errs"
	"github.com/aicontext-go/core/mmr"
)

// Message is a role-tagged query input. Flattened into a single query
// string by joining Parts with single spaces and prefixing "role: ".
type Message struct {
	Role  string
	Parts []string
}

// Flatten renders a sequence of role-tagged messages into the single query
// string C9 consumes. An empty message (no parts) still contributes its
// "role: " prefix, preserving message count in the joined output.
func Flatten(messages []Message) string {
	rendered := make([]string, len(messages))
	for i, m := range messages {
		rendered[i] = m.Role + ": " + strings.Join(m.Parts, " ")
	}
	return strings.Join(rendered, " ")
}

// RenderOptions configures a single Render call.
type RenderOptions struct {
	TokenBudget     *int // nil = no limit
	Lambda          float64
	FreshnessWeight float64
	// PreserveMMROrder returns the budget-filtered subset in MMR selection
	// order instead of re-sorting it chronologically. Default (false)
	// keeps the documented chronological-output behavior.
	PreserveMMROrder bool
}

// DefaultRenderOptions returns Lambda=0.5, FreshnessWeight=0.2, no budget.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Lambda: 0.5, FreshnessWeight: 0.2}
}

// Renderer composes a Store with an embedding provider to produce ranked,
// budget-filtered context for a query.
type Renderer struct {
	store    *Store
	embedder embedding.Provider
	logger   *zap.Logger
}

// NewRenderer constructs a Renderer over store using embedder to embed
// incoming queries. A nil logger defaults to zap.NewNop().
func NewRenderer(store *Store, embedder embedding.Provider, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{store: store, embedder: embedder, logger: logger}
}

// Render executes the full C9 pipeline: flatten (if messages), embed,
// freshness-boost, MMR-select, budget-filter, and return in chronological
// order (unless opts.PreserveMMROrder is set).
func (r *Renderer) Render(ctx context.Context, query string, opts RenderOptions) ([]ContextItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.New(errs.InvalidQuery, "query is empty")
	}
	if opts.Lambda < 0 || opts.Lambda > 1 {
		return nil, errs.New(errs.InvalidArgument, "lambda must be in [0,1]")
	}
	if opts.FreshnessWeight < 0 || opts.FreshnessWeight > 1 {
		return nil, errs.New(errs.InvalidArgument, "freshness_weight must be in [0,1]")
	}
	if opts.TokenBudget != nil && *opts.TokenBudget <= 0 {
		return nil, errs.New(errs.InvalidArgument, "token_budget must be positive when set")
	}

	items := r.store.Items()
	if len(items) == 0 {
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderFailure, "embed render query", err)
	}

	boosted := r.freshnessBoost(items, queryVec, opts.FreshnessWeight)

	selected := mmr.Select(boosted, queryVec, opts.Lambda, nil)

	filtered := selected
	if opts.TokenBudget != nil {
		filtered = r.filterByBudget(items, selected, *opts.TokenBudget)
	}

	out := make([]ContextItem, len(filtered))
	for i, sel := range filtered {
		out[i] = items[sel.Index]
	}
	if !opts.PreserveMMROrder {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
	}
	return out, nil
}

// RenderMessages is Render with message-sequence input, flattened first.
func (r *Renderer) RenderMessages(ctx context.Context, messages []Message, opts RenderOptions) ([]ContextItem, error) {
	return r.Render(ctx, Flatten(messages), opts)
}

// freshnessBoost blends each item's embedding toward the query embedding in
// proportion to its recency. Δ == 0 or weight == 0 skips boosting and
// returns the original embeddings unmodified.
func (r *Renderer) freshnessBoost(items []ContextItem, query embedding.Vector, weight float64) []embedding.Vector {
	out := make([]embedding.Vector, len(items))
	if weight == 0 {
		r.logger.Debug("skipping freshness boost: zero weight")
		for i, it := range items {
			out[i] = it.Embedding
		}
		return out
	}

	tMax, tMin := items[0].Timestamp, items[0].Timestamp
	for _, it := range items {
		if it.Timestamp.After(tMax) {
			tMax = it.Timestamp
		}
		if it.Timestamp.Before(tMin) {
			tMin = it.Timestamp
		}
	}
	delta := tMax.Sub(tMin).Seconds()
	if delta == 0 {
		r.logger.Debug("skipping freshness boost: zero timestamp spread")
		for i, it := range items {
			out[i] = it.Embedding
		}
		return out
	}

	for i, it := range items {
		age := tMax.Sub(it.Timestamp).Seconds() / delta
		fresh := 1 - age
		beta := weight * fresh
		out[i] = blend(it.Embedding, query, beta)
	}
	return out
}

// blend computes (1-beta)*e + beta*q element-wise, over the shorter common
// length of the two vectors.
func blend(e, q embedding.Vector, beta float64) embedding.Vector {
	n := len(e)
	if len(q) < n {
		n = len(q)
	}
	out := make(embedding.Vector, n)
	for i := 0; i < n; i++ {
		out[i] = float32((1-beta)*float64(e[i]) + beta*float64(q[i]))
	}
	return out
}

// filterByBudget walks selected (MMR order) and greedily keeps items whose
// running token total stays within budget, skipping (not aborting on) any
// item that would exceed it.
func (r *Renderer) filterByBudget(items []ContextItem, selected []mmr.Result, budget int) []mmr.Result {
	var out []mmr.Result
	total := 0
	for _, sel := range selected {
		tc := items[sel.Index].TokenCount
		if total+tc > budget {
			r.logger.Debug("skipping item over token budget", zap.Int("index", sel.Index), zap.Int("token_count", tc), zap.Int("running_total", total), zap.Int("budget", budget))
			continue
		}
		total += tc
		out = append(out, sel)
	}
	return out
}
