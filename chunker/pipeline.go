package chunker

import (
	"context"

	"go.uber.org/zap"

	"github.com/aicontext-go/core/embedding"
	"github.com/aicontext-go/core/errs"
	"github.com/aicontext-go/core/similarity"
	"github.com/aicontext-go/core/splitter"
)

// sentenceGroup is the C6 SentenceGroup: a buffered window of segments
// plus its derived span, combined text, and (once embedded) vector.
type sentenceGroup struct {
	segments     []splitter.TextSegment
	start, end   int
	combinedText string
	vector       embedding.Vector
	isFallback   bool // a single segment alone exceeded MaxTokensPerChunk
}

func (c *Chunker) run(ctx context.Context, text string, logger *zap.Logger) ([]TextChunk, error) {
	segs, err := splitter.SplitAll(ctx, c.splitter, text)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, nil
	}
	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}

	groups := c.buildGroups(segs)

	if err := c.embedGroups(ctx, groups, logger); err != nil {
		return nil, err
	}

	if err := errs.FromContext(ctx); err != nil {
		return nil, err
	}

	fallbackFlags := groupFallbackFlags(groups)

	if len(groups) < 3 {
		// Fewer than two consecutive-distance values: degenerate to
		// "no breakpoints". Still routes through the same bounds
		// enforcement as the breakpoint path below, so this path can't
		// emit an over-max chunk without IsFallback set.
		candidates := c.tokenGreedyFallback(segs, fallbackFlags)
		return c.enforceMinSize(c.enforceMaxSize(candidates)), nil
	}

	distances := make([]float64, len(groups)-1)
	for i := 0; i < len(groups)-1; i++ {
		distances[i] = similarity.CosineDistance(groups[i].vector, groups[i+1].vector)
	}

	threshold := similarity.Percentile(distances, c.cfg.BreakpointPercentileThreshold)
	breakpoints := similarity.FindBreakpoints(distances, threshold)

	candidates := c.cutAtBreakpoints(segs, breakpoints, fallbackFlags)
	sized := c.enforceMaxSize(candidates)
	final := c.enforceMinSize(sized)

	return final, nil
}

// groupFallbackFlags returns, parallel to the original segment slice, whether
// each segment's sentence group was itself an oversized singleton during
// embedding (sentenceGroup.isFallback). buildGroups emits exactly one group
// per segment index, so groups[i] always corresponds to segs[i].
func groupFallbackFlags(groups []*sentenceGroup) []bool {
	flags := make([]bool, len(groups))
	for i, g := range groups {
		flags[i] = g.isFallback
	}
	return flags
}

// buildGroups forms the sliding sentence-group window for every segment
// index i: segments[max(0,i-Buffer) .. min(n,i+Buffer+1)].
func (c *Chunker) buildGroups(segs []splitter.TextSegment) []*sentenceGroup {
	n := len(segs)
	groups := make([]*sentenceGroup, 0, n)
	for i := 0; i < n; i++ {
		lo := i - c.cfg.BufferSize
		if lo < 0 {
			lo = 0
		}
		hi := i + c.cfg.BufferSize + 1
		if hi > n {
			hi = n
		}
		window := segs[lo:hi]
		groups = append(groups, c.newGroup(window))
	}
	return groups
}

func (c *Chunker) newGroup(window []splitter.TextSegment) *sentenceGroup {
	g := &sentenceGroup{segments: window}
	g.start = window[0].Start
	g.end = window[0].End
	parts := make([]string, len(window))
	for i, s := range window {
		parts[i] = s.Text
		if s.Start < g.start {
			g.start = s.Start
		}
		if s.End > g.end {
			g.end = s.End
		}
	}
	g.combinedText = joinSpace(parts)
	return g
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
