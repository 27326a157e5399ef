// Package ranking implements the generic ranking engine (C10), scoring
// normalizers (C11), and fusion strategies (C12): score, normalize, and
// combine a set of items against multiple independent scoring functions.
package ranking

import "sort"

// ScoringFunction produces raw, unnormalized scores for a batch of items.
// Implementations provide the batch form only; the interface has no
// single-item Score method.
type ScoringFunction[T any] interface {
	Name() string
	ScoreBatch(items []T) []float64
}

// WeightedScorer pairs a scoring function with a signed weight and an
// optional per-scorer normalizer override. A positive weight rewards high
// scores; a negative weight rewards low scores (dissimilarity), applied
// after normalization.
type WeightedScorer[T any] struct {
	Scorer     ScoringFunction[T]
	Weight     float64
	Normalizer Normalizer // nil: engine falls back to its default, then MinMax
}

// RankedResult is one item's fused ranking outcome.
type RankedResult[T any] struct {
	Item             T
	FinalScore       float64
	IndividualScores map[string]float64
	Rank             int
}

// Engine ranks items against a fixed set of weighted scorers and a fusion
// strategy.
type Engine[T any] struct {
	DefaultNormalizer Normalizer // used when a WeightedScorer has none; nil falls back to MinMax
}

// NewEngine returns an Engine whose default normalizer is MinMax.
func NewEngine[T any]() *Engine[T] {
	return &Engine[T]{DefaultNormalizer: MinMax{}}
}

// Rank scores, normalizes, and fuses items per scorers using strategy, then
// sorts descending by final score (stable on ties) and assigns dense
// 1-based ranks.
func (e *Engine[T]) Rank(items []T, scorers []WeightedScorer[T], strategy Strategy) []RankedResult[T] {
	if len(items) == 0 {
		return nil
	}
	if strategy == nil {
		strategy = WeightedSum{}
	}

	normalized := make([][]float64, len(scorers))
	names := make([]string, len(scorers))
	for si, ws := range scorers {
		raw := ws.Scorer.ScoreBatch(items)
		norm := ws.Normalizer
		if norm == nil {
			norm = e.DefaultNormalizer
		}
		if norm == nil {
			norm = MinMax{}
		}
		normalized[si] = norm.Normalize(raw)
		names[si] = ws.Scorer.Name()
	}

	weights := make([]float64, len(scorers))
	for i, ws := range scorers {
		weights[i] = ws.Weight
	}

	final := strategy.Combine(normalized, weights)

	results := make([]RankedResult[T], len(items))
	for i := range items {
		scores := make(map[string]float64, len(scorers))
		for si, name := range names {
			scores[name] = normalized[si][i]
		}
		results[i] = RankedResult[T]{Item: items[i], FinalScore: final[i], IndividualScores: scores}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// RankTopK returns the same result as Rank(...)[:k] (truncated if k exceeds
// the item count).
func (e *Engine[T]) RankTopK(items []T, scorers []WeightedScorer[T], k int, strategy Strategy) []RankedResult[T] {
	full := e.Rank(items, scorers, strategy)
	if k >= len(full) {
		return full
	}
	if k <= 0 {
		return nil
	}
	return full[:k]
}
