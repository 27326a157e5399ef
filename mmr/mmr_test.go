package mmr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aicontext-go/core/embedding"
)

func vec(xs ...float32) embedding.Vector { return embedding.Vector(xs) }

func TestEmptyInputYieldsEmpty(t *testing.T) {
	require.Empty(t, Select(nil, vec(1, 0, 0), 0.5, nil))
	require.Empty(t, Select([]embedding.Vector{}, vec(1, 0, 0), 0.5, nil))
}

func TestTopKZeroYieldsEmpty(t *testing.T) {
	zero := 0
	vs := []embedding.Vector{vec(1, 0, 0), vec(0, 1, 0)}
	require.Empty(t, Select(vs, vec(1, 0, 0), 0.5, &zero))
}

func TestTopKGreaterThanNReturnsAll(t *testing.T) {
	vs := []embedding.Vector{vec(1, 0, 0), vec(0, 1, 0)}
	big := 10
	res := Select(vs, vec(1, 0, 0), 0.5, &big)
	require.Len(t, res, 2)
}

func TestPureRelevanceIsDescendingRelSimPrefix(t *testing.T) {
	vs := []embedding.Vector{
		vec(1, 0, 0),
		vec(0.9, 0.1, 0),
		vec(0, 1, 0),
		vec(0, 0, 1),
	}
	res := Select(vs, vec(1, 0, 0), 1.0, nil)
	require.Len(t, res, 4)
	require.Equal(t, 0, res[0].Index)
	require.Equal(t, 1, res[1].Index)
}

func TestIdenticalPairScenario(t *testing.T) {
	vs := []embedding.Vector{
		vec(1, 0, 0),
		vec(1, 0, 0),
		vec(0, 1, 0),
		vec(0, 0, 1),
		vec(1, 1, 0),
		vec(1, 0, 1),
	}
	k := 3
	res := Select(vs, vec(1, 0, 0), 0.5, &k)
	require.Len(t, res, 3)

	firstTwo := map[int]bool{res[0].Index: true, res[1].Index: true}
	require.False(t, firstTwo[0] && firstTwo[1], "indices 0 and 1 (identical vectors) must not both be the first two picks")

	hasDiverse := false
	for _, r := range res {
		if r.Index == 2 || r.Index == 3 {
			hasDiverse = true
		}
	}
	require.True(t, hasDiverse, "expected at least one of indices {2,3} selected for diversity")
}

func TestPureRelevanceScenario(t *testing.T) {
	vs := []embedding.Vector{
		vec(1, 0, 0),
		vec(1, 0, 0),
		vec(0, 1, 0),
		vec(0, 0, 1),
		vec(1, 1, 0),
		vec(1, 0, 1),
	}
	k := 2
	res := Select(vs, vec(1, 0, 0), 1.0, &k)
	require.Len(t, res, 2)
	for _, r := range res {
		require.True(t, r.Index == 0 || r.Index == 1)
	}
}

func TestIdenticalVectorsNotBothSelectedBeforeOthers(t *testing.T) {
	vs := []embedding.Vector{
		vec(1, 0, 0),
		vec(1, 0, 0),
		vec(0, 1, 0),
	}
	res := Select(vs, vec(1, 0, 0), 0.0, nil)
	require.Len(t, res, 3)
	require.False(t, res[0].Index != 2 && res[1].Index != 2, "a non-identical vector must appear before both identical ones are exhausted")
}

func TestSelectionOrderNotNecessarilyScoreOrder(t *testing.T) {
	vs := []embedding.Vector{
		vec(0.1, 0, 0),
		vec(1, 0, 0),
		vec(0, 1, 0),
	}
	res := Select(vs, vec(1, 0, 0), 0.5, nil)
	require.Len(t, res, 3)
	// Picks score 1.0 (index 0), then 0.5 (index 2, winning the tie with
	// index 1 on diversity), then 0.75 (index 1): index 2 is picked before
	// the more relevant index 1, and the third pick outscores the second.
	require.Equal(t, 0, res[0].Index)
	require.Equal(t, 2, res[1].Index)
	require.Equal(t, 1, res[2].Index)
}

func TestTieBreakPrefersSmallerIndex(t *testing.T) {
	vs := []embedding.Vector{
		vec(1, 0),
		vec(1, 0),
	}
	k := 1
	res := Select(vs, vec(1, 0), 1.0, &k)
	require.Len(t, res, 1)
	require.Equal(t, 0, res[0].Index)
}

func TestZeroNormQueryDoesNotPanic(t *testing.T) {
	vs := []embedding.Vector{vec(0, 0, 0), vec(1, 2, 3)}
	res := Select(vs, vec(0, 0, 0), 0.5, nil)
	require.Len(t, res, 2)
}
