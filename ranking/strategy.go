package ranking

import "sort"

// Strategy fuses per-scorer normalized scores (one []float64 per scorer,
// indexed by item) plus their weights into one final score per item.
type Strategy interface {
	Combine(normalized [][]float64, weights []float64) []float64
}

// WeightedSum computes final[i] = Σ_k weight_k * normalized_k[i].
type WeightedSum struct{}

func (WeightedSum) Combine(normalized [][]float64, weights []float64) []float64 {
	if len(normalized) == 0 {
		return nil
	}
	n := len(normalized[0])
	out := make([]float64, n)
	for k, scores := range normalized {
		w := weights[k]
		for i, s := range scores {
			out[i] += w * s
		}
	}
	return out
}

// RRF is Reciprocal Rank Fusion: final[i] = Σ_k weight_k / (K + rank_k(i)),
// where rank_k(i) is item i's 1-based descending rank under scorer k.
// Negative weights subtract their reciprocal contribution.
type RRF struct {
	K float64 // 0 uses the default of 60
}

func (r RRF) Combine(normalized [][]float64, weights []float64) []float64 {
	if len(normalized) == 0 {
		return nil
	}
	k := r.K
	if k == 0 {
		k = 60
	}
	n := len(normalized[0])
	out := make([]float64, n)
	for s, scores := range normalized {
		ranks := descendingRanks(scores)
		w := weights[s]
		for i, rank := range ranks {
			out[i] += w / (k + float64(rank))
		}
	}
	return out
}

// descendingRanks returns each item's 1-based rank under descending sort
// (index 0 of the sorted order gets rank 1). Ties broken by original index
// for determinism; this is an internal fusion ordering, not the engine's
// own stable-sort output.
func descendingRanks(scores []float64) []int {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	ranks := make([]int, n)
	for rank, idx := range order {
		ranks[idx] = rank + 1
	}
	return ranks
}

// Hybrid blends WeightedSum and RRF: final = Alpha*WeightedSum +
// (1-Alpha)*RRF. Alpha is used exactly as set (including 0, meaning pure
// RRF) — use NewHybrid for the documented default of 0.5.
type Hybrid struct {
	Alpha float64
	RRFK  float64 // passed through to the internal RRF; 0 uses its default
}

// NewHybrid returns a Hybrid with the default Alpha (0.5).
func NewHybrid() Hybrid {
	return Hybrid{Alpha: 0.5}
}

func (h Hybrid) Combine(normalized [][]float64, weights []float64) []float64 {
	ws := WeightedSum{}.Combine(normalized, weights)
	rrf := RRF{K: h.RRFK}.Combine(normalized, weights)
	out := make([]float64, len(ws))
	for i := range out {
		out[i] = h.Alpha*ws[i] + (1-h.Alpha)*rrf[i]
	}
	return out
}
