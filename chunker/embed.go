package chunker

import (
	"context"

	"go.uber.org/zap"

	"github.com/aicontext-go/core/embedding"
	"github.com/aicontext-go/core/errs"
	"github.com/aicontext-go/core/splitter"
)

// embedGroups resolves every group's vector, consulting the cache first
// and batching the remainder through the embedding provider. Groups whose
// combined text exceeds MaxTokensPerChunk are pre-split into maximal
// token-bounded subgroups before embedding; the group's final
// vector is the mean of its subgroup vectors. A single segment that alone
// exceeds the limit is embedded whole and flagged isFallback.
func (c *Chunker) embedGroups(ctx context.Context, groups []*sentenceGroup, logger *zap.Logger) error {
	// jobTexts[g] holds the one-or-more texts to embed for group g.
	jobTexts := make([][]string, len(groups))
	for gi, g := range groups {
		tokenCount, err := c.tokenizer.CountTokens(g.combinedText)
		if err != nil {
			return errs.Wrap(errs.ProviderFailure, "count tokens for sentence group", err)
		}
		if tokenCount <= c.cfg.MaxTokensPerChunk || len(g.segments) == 1 {
			if tokenCount > c.cfg.MaxTokensPerChunk {
				g.isFallback = true
			}
			jobTexts[gi] = []string{g.combinedText}
			continue
		}
		jobTexts[gi] = c.preflightSplit(g.segments)
		// groups[gi] is the window around segment gi. When that segment
		// alone exceeds the limit, preflightSplit keeps it as its own
		// subgroup and the group is flagged as for a singleton group.
		lo := gi - c.cfg.BufferSize
		if lo < 0 {
			lo = 0
		}
		if own, _ := c.tokenizer.CountTokens(g.segments[gi-lo].Text); own > c.cfg.MaxTokensPerChunk {
			g.isFallback = true
		}
	}

	// Flatten into a single batch, resolving cache hits inline and
	// collecting misses for the provider.
	resolved := make([][]embedding.Vector, len(groups))
	for gi := range groups {
		resolved[gi] = make([]embedding.Vector, len(jobTexts[gi]))
	}

	var missTexts []string
	var missLocations [][2]int // groupIdx, subIdx
	for gi, texts := range jobTexts {
		for si, t := range texts {
			if c.cache != nil {
				if v, ok := c.cache.TryGet(t); ok {
					resolved[gi][si] = v
					continue
				}
			}
			missTexts = append(missTexts, t)
			missLocations = append(missLocations, [2]int{gi, si})
		}
	}

	if len(missTexts) > 0 {
		vectors, err := embedding.EmbedBatchSlice(ctx, c.embedder, missTexts)
		if err != nil {
			return errs.Wrap(errs.ProviderFailure, "embed sentence groups", err)
		}
		for i, v := range vectors {
			loc := missLocations[i]
			resolved[loc[0]][loc[1]] = v
			if c.cache != nil && v != nil {
				c.cache.Store(missTexts[i], v)
			}
		}
	}

	for gi, g := range groups {
		g.vector = meanVector(resolved[gi])
		if g.vector == nil {
			logger.Warn("sentence group embedding resolved to nil vector", zap.Int("group_index", gi))
		}
	}
	return nil
}

// preflightSplit cuts segments into maximal prefix subgroups whose
// combined token count stays <= MaxTokensPerChunk, returning the combined
// text of each subgroup. Called only when segments has more than one
// member and their combined text exceeds the limit.
func (c *Chunker) preflightSplit(segments []splitter.TextSegment) []string {
	var texts []string
	var cur []splitter.TextSegment
	for _, seg := range segments {
		trial := append(append([]splitter.TextSegment{}, cur...), seg)
		text := joinSegments(trial)
		n, _ := c.tokenizer.CountTokens(text)
		if n > c.cfg.MaxTokensPerChunk && len(cur) > 0 {
			texts = append(texts, joinSegments(cur))
			cur = []splitter.TextSegment{seg}
			continue
		}
		cur = trial
	}
	if len(cur) > 0 {
		texts = append(texts, joinSegments(cur))
	}
	return texts
}

func joinSegments(segs []splitter.TextSegment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.Text
	}
	return joinSpace(parts)
}

// meanVector averages non-nil vectors element-wise. Returns nil if none
// are present.
func meanVector(vs []embedding.Vector) embedding.Vector {
	var dim int
	count := 0
	for _, v := range vs {
		if v == nil {
			continue
		}
		if dim == 0 {
			dim = len(v)
		}
		count++
	}
	if count == 0 || dim == 0 {
		return nil
	}
	sum := make([]float64, dim)
	for _, v := range vs {
		if v == nil {
			continue
		}
		for i := 0; i < dim && i < len(v); i++ {
			sum[i] += float64(v[i])
		}
	}
	out := make(embedding.Vector, dim)
	for i, s := range sum {
		out[i] = float32(s / float64(count))
	}
	return out
}
