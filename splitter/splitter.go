// Package splitter produces positioned text segments from raw text:
// sentence-aware by default, or Markdown-structure-aware.
package splitter

import (
	"context"

	"github.com/aicontext-go/core/errs"
)

// TextSegment is a minimal positioned text unit. Start/End are half-open
// offsets into the original source text; Text is the trimmed substring, so
// source[Start:End] contains Text (possibly with surrounding whitespace).
type TextSegment struct {
	Text  string
	Start int
	End   int
}

// Splitter produces a cancellable, ordered sequence of TextSegments for a
// piece of text.
type Splitter interface {
	Split(ctx context.Context, source string) (<-chan TextSegment, error)
}

// collectAll drains a Splitter's channel into a slice, for callers of
// SplitAll (tests, the chunker's sentence grouping) that need random access
// rather than streaming.
func collectAll(ctx context.Context, ch <-chan TextSegment) []TextSegment {
	var out []TextSegment
	for seg := range ch {
		out = append(out, seg)
	}
	_ = ctx
	return out
}

// SplitAll runs s over source and collects every segment. Equivalent to
// manually draining Split's channel.
func SplitAll(ctx context.Context, s Splitter, source string) ([]TextSegment, error) {
	ch, err := s.Split(ctx, source)
	if err != nil {
		return nil, err
	}
	return collectAll(ctx, ch), errs.FromContext(ctx)
}
