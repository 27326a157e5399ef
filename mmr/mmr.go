// Package mmr implements the C7 greedy Maximum Marginal Relevance selector:
// balance query-relevance against diversity among already-selected items.
package mmr

import (
	"math"

	"github.com/aicontext-go/core/embedding"
	"github.com/aicontext-go/core/similarity"
)

// Result is one selected item, in selection (not score) order.
type Result struct {
	Index  int
	Vector embedding.Vector
}

// Select runs greedy MMR over vectors against query. lambda must be in
// [0,1]. topK, if non-nil, caps the number of selections; nil means all n.
// Empty or nil vectors yields an empty result; topK == 0 yields empty.
func Select(vectors []embedding.Vector, query embedding.Vector, lambda float64, topK *int) []Result {
	n := len(vectors)
	if n == 0 {
		return nil
	}

	k := n
	if topK != nil {
		if *topK <= 0 {
			return nil
		}
		if *topK < k {
			k = *topK
		}
	}

	relSim := make([]float64, n)
	for i, v := range vectors {
		relSim[i] = similarity.Cosine(v, query)
	}

	remaining := make([]bool, n)
	for i := range remaining {
		remaining[i] = true
	}

	selected := make([]int, 0, k)
	results := make([]Result, 0, k)

	for len(selected) < k {
		best := -1
		var bestScore, bestDiversity float64
		for i := 0; i < n; i++ {
			if !remaining[i] {
				continue
			}
			diversity := 1.0
			if len(selected) > 0 {
				sum := 0.0
				for _, j := range selected {
					sum += similarity.Cosine(vectors[i], vectors[j])
				}
				diversity = 1 - sum/float64(len(selected))
			}
			score := lambda*relSim[i] + (1-lambda)*diversity
			if math.IsNaN(score) || math.IsInf(score, 0) {
				score = math.Inf(-1)
			}

			if best == -1 || better(score, diversity, i, bestScore, bestDiversity, best) {
				best = i
				bestScore = score
				bestDiversity = diversity
			}
		}
		if best == -1 {
			break
		}
		remaining[best] = false
		selected = append(selected, best)
		results = append(results, Result{Index: best, Vector: vectors[best]})
	}

	return results
}

// better reports whether candidate (score,diversity,idx) should replace the
// current best (bestScore,bestDiversity,bestIdx) in the arg-max: higher
// score wins; on a score tie, larger diversity component wins; on a further
// tie, the smaller original index wins (so lower indices are visited first
// and are never displaced by an equal later candidate).
func better(score, diversity float64, idx int, bestScore, bestDiversity float64, bestIdx int) bool {
	if score != bestScore {
		return score > bestScore
	}
	if diversity != bestDiversity {
		return diversity > bestDiversity
	}
	return idx < bestIdx
}
