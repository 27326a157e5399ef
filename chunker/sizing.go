package chunker

import "github.com/aicontext-go/core/splitter"

// cutAtBreakpoints partitions segs into candidate chunks at the given
// breakpoint indices (each index i means "cut after segment i").
// fallbackFlags, parallel to segs, marks segments whose sentence group was
// itself an oversized singleton at embed time; any chunk covering such a
// segment is born already flagged IsFallback.
func (c *Chunker) cutAtBreakpoints(segs []splitter.TextSegment, breakpoints []int, fallbackFlags []bool) []TextChunk {
	var chunks []TextChunk
	start := 0
	cut := func(end int) {
		part := segs[start : end+1]
		chunks = append(chunks, c.makeChunk(part, fallbackFlags[start:end+1]))
		start = end + 1
	}
	for _, bp := range breakpoints {
		if bp < start || bp >= len(segs) {
			continue
		}
		cut(bp)
	}
	if start < len(segs) {
		chunks = append(chunks, c.makeChunk(segs[start:], fallbackFlags[start:]))
	}
	return chunks
}

// makeChunk builds a chunk from a contiguous run of segments. segFallback,
// parallel to segs, carries forward any embed-time oversized-group signal
// onto the resulting chunk's metadata.
func (c *Chunker) makeChunk(segs []splitter.TextSegment, segFallback []bool) TextChunk {
	parts := make([]string, len(segs))
	start, end := segs[0].Start, segs[0].End
	fallback := false
	for i, s := range segs {
		parts[i] = s.Text
		if s.Start < start {
			start = s.Start
		}
		if s.End > end {
			end = s.End
		}
		if i < len(segFallback) && segFallback[i] {
			fallback = true
		}
	}
	text := joinSpace(parts)
	tokenCount, _ := c.tokenizer.CountTokens(text)
	meta := map[string]any{
		MetaTokenCount:   tokenCount,
		MetaSegmentCount: len(segs),
	}
	if fallback {
		meta[MetaIsFallback] = true
	}
	return TextChunk{
		Text:     text,
		Start:    start,
		End:      end,
		Metadata: meta,
	}
}

// enforceMaxSize re-splits any over-max candidate on word boundaries into
// several size-bounded chunks.
func (c *Chunker) enforceMaxSize(candidates []TextChunk) []TextChunk {
	var out []TextChunk
	for _, cand := range candidates {
		tokenCount := cand.Metadata[MetaTokenCount].(int)
		if tokenCount <= c.cfg.MaxTokensPerChunk {
			out = append(out, cand)
			continue
		}
		out = append(out, c.splitOversizedByWords(cand)...)
	}
	return out
}

// splitOversizedByWords greedily re-splits an over-budget chunk on
// whitespace-joined word boundaries (the same granularity the chunk's own
// text was joined at), accumulating words until the next one would exceed
// MaxTokensPerChunk. A chunk that is a single indivisible unit (cannot be
// reduced below the limit, e.g. one giant token-dense word) is kept whole
// and flagged IsFallback.
func (c *Chunker) splitOversizedByWords(cand TextChunk) []TextChunk {
	words := splitWordsWithOffsets(cand.Text)
	if len(words) <= 1 {
		cand.Metadata[MetaIsFallback] = true
		return []TextChunk{cand}
	}

	carryFallback, _ := cand.Metadata[MetaIsFallback].(bool)

	var out []TextChunk
	var cur []wordSpan
	flush := func() {
		parts := make([]string, len(cur))
		for i, w := range cur {
			parts[i] = w.text
		}
		text := joinSpace(parts)
		tokenCount, _ := c.tokenizer.CountTokens(text)
		meta := map[string]any{
			MetaTokenCount:   tokenCount,
			MetaSegmentCount: cand.Metadata[MetaSegmentCount],
		}
		if carryFallback || tokenCount > c.cfg.MaxTokensPerChunk {
			meta[MetaIsFallback] = true
		}
		out = append(out, TextChunk{
			Text:     text,
			Start:    cand.Start + cur[0].start,
			End:      cand.Start + cur[len(cur)-1].end,
			Metadata: meta,
		})
		cur = nil
	}
	for _, w := range words {
		trial := append(append([]wordSpan{}, cur...), w)
		parts := make([]string, len(trial))
		for i, t := range trial {
			parts[i] = t.text
		}
		n, _ := c.tokenizer.CountTokens(joinSpace(parts))
		if n > c.cfg.MaxTokensPerChunk && len(cur) > 0 {
			flush()
			cur = []wordSpan{w}
		} else {
			cur = trial
		}
	}
	if len(cur) > 0 {
		flush()
	}
	if len(out) == 0 {
		cand.Metadata[MetaIsFallback] = true
		return []TextChunk{cand}
	}
	return out
}

// wordSpan is a whitespace-delimited word together with its actual byte
// offset range within the text it was split from.
type wordSpan struct {
	text       string
	start, end int
}

func splitWordsWithOffsets(text string) []wordSpan {
	var words []wordSpan
	wordStart := -1
	isSpace := func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' }
	for i, r := range text {
		if isSpace(r) {
			if wordStart >= 0 {
				words = append(words, wordSpan{text: text[wordStart:i], start: wordStart, end: i})
				wordStart = -1
			}
			continue
		}
		if wordStart < 0 {
			wordStart = i
		}
	}
	if wordStart >= 0 {
		words = append(words, wordSpan{text: text[wordStart:], start: wordStart, end: len(text)})
	}
	return words
}

// enforceMinSize merges below-minimum chunks into the following one when
// that stays within the maximum, otherwise drops them unless they are the
// sole chunk in the whole run (in which case they are emitted with
// IsFallback=true).
func (c *Chunker) enforceMinSize(candidates []TextChunk) []TextChunk {
	if len(candidates) <= 1 {
		for i := range candidates {
			tc := candidates[i].Metadata[MetaTokenCount].(int)
			if tc < c.cfg.MinTokensPerChunk {
				candidates[i].Metadata[MetaIsFallback] = true
			}
		}
		return candidates
	}

	var out []TextChunk
	i := 0
	for i < len(candidates) {
		cur := candidates[i]
		for tokenCount(cur) < c.cfg.MinTokensPerChunk && i+1 < len(candidates) &&
			tokenCount(cur)+tokenCount(candidates[i+1]) <= c.cfg.MaxTokensPerChunk {
			cur = mergeChunks(cur, candidates[i+1])
			i++
		}
		if tokenCount(cur) < c.cfg.MinTokensPerChunk {
			// Below minimum and couldn't merge into the next chunk: drop it.
			// If every candidate ends up dropped, the fallback below keeps
			// the run from emitting zero chunks.
		} else {
			out = append(out, cur)
		}
		i++
	}
	if len(out) == 0 && len(candidates) > 0 {
		// Every candidate was below minimum and none could merge: the
		// original single-chunk carve-out still applies collectively.
		sole := candidates[0]
		sole.Metadata[MetaIsFallback] = true
		out = append(out, sole)
	}
	return out
}

func tokenCount(c TextChunk) int {
	return c.Metadata[MetaTokenCount].(int)
}

func mergeChunks(a, b TextChunk) TextChunk {
	text := a.Text + " " + b.Text
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End
	if b.End > end {
		end = b.End
	}
	segCount := a.Metadata[MetaSegmentCount].(int) + b.Metadata[MetaSegmentCount].(int)
	meta := map[string]any{
		MetaTokenCount:   a.Metadata[MetaTokenCount].(int) + b.Metadata[MetaTokenCount].(int),
		MetaSegmentCount: segCount,
	}
	aFallback, _ := a.Metadata[MetaIsFallback].(bool)
	bFallback, _ := b.Metadata[MetaIsFallback].(bool)
	if aFallback || bFallback {
		meta[MetaIsFallback] = true
	}
	return TextChunk{
		Text:     text,
		Start:    start,
		End:      end,
		Metadata: meta,
	}
}

// tokenGreedyFallback is used when the percentile/breakpoint machinery
// degenerates (fewer than two consecutive distances): it emits up to one
// candidate chunk per MaxTokensPerChunk worth of segments. Its output still
// passes through enforceMaxSize/enforceMinSize in run(), so an individual
// segment that alone exceeds MaxTokensPerChunk gets word-split there, and
// the pieces keep the IsFallback flag that segment received at embed time,
// rather than slipping through over-budget.
func (c *Chunker) tokenGreedyFallback(segs []splitter.TextSegment, fallbackFlags []bool) []TextChunk {
	var out []TextChunk
	var cur []splitter.TextSegment
	curStart := 0
	for i, s := range segs {
		trial := append(append([]splitter.TextSegment{}, cur...), s)
		text := joinSegments(trial)
		n, _ := c.tokenizer.CountTokens(text)
		if n > c.cfg.MaxTokensPerChunk && len(cur) > 0 {
			out = append(out, c.makeChunk(cur, fallbackFlags[curStart:curStart+len(cur)]))
			cur = []splitter.TextSegment{s}
			curStart = i
			continue
		}
		cur = trial
	}
	if len(cur) > 0 {
		out = append(out, c.makeChunk(cur, fallbackFlags[curStart:curStart+len(cur)]))
	}
	return out
}
