package ranking

import (
	"math"
	"sort"
)

// Normalizer maps a vector of raw scores onto a comparable scale. Stable on
// constant inputs (no divide-by-zero NaN leaks to callers). Non-finite
// inputs are treated as the minimum value during normalization.
type Normalizer interface {
	Normalize(raw []float64) []float64
}

func sanitize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	min := math.Inf(1)
	for _, x := range raw {
		if !math.IsNaN(x) && !math.IsInf(x, 0) && x < min {
			min = x
		}
	}
	if math.IsInf(min, 1) {
		min = 0 // every input was non-finite
	}
	for i, x := range raw {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			out[i] = min
		} else {
			out[i] = x
		}
	}
	return out
}

// MinMax rescales to [0,1]: (x - min) / (max - min). A constant input
// (max == min) yields all zeros.
type MinMax struct{}

func (MinMax) Normalize(raw []float64) []float64 {
	vals := sanitize(raw)
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	min, max := vals[0], vals[0]
	for _, x := range vals {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	if max == min {
		return out
	}
	for i, x := range vals {
		out[i] = (x - min) / (max - min)
	}
	return out
}

// ZScore rescales to (x - mean) / stddev. A zero-stddev input yields all
// zeros.
type ZScore struct{}

func (ZScore) Normalize(raw []float64) []float64 {
	vals := sanitize(raw)
	out := make([]float64, len(vals))
	n := len(vals)
	if n == 0 {
		return out
	}
	sum := 0.0
	for _, x := range vals {
		sum += x
	}
	mean := sum / float64(n)
	var varSum float64
	for _, x := range vals {
		d := x - mean
		varSum += d * d
	}
	stddev := math.Sqrt(varSum / float64(n))
	if stddev == 0 {
		return out
	}
	for i, x := range vals {
		out[i] = (x - mean) / stddev
	}
	return out
}

// Percentile maps each value onto its rank, linearly rescaled to [0,1].
// Ties share the average rank.
type Percentile struct{}

func (Percentile) Normalize(raw []float64) []float64 {
	vals := sanitize(raw)
	n := len(vals)
	out := make([]float64, n)
	if n <= 1 {
		return out
	}

	type indexed struct {
		val float64
		idx int
	}
	sorted := make([]indexed, n)
	for i, v := range vals {
		sorted[i] = indexed{val: v, idx: i}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].val < sorted[j].val })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && sorted[j+1].val == sorted[i].val {
			j++
		}
		avgRank := float64(i+j) / 2.0 // 0-based average rank over the tied run
		for m := i; m <= j; m++ {
			ranks[sorted[m].idx] = avgRank
		}
		i = j + 1
	}
	for i, r := range ranks {
		out[i] = r / float64(n-1)
	}
	return out
}
