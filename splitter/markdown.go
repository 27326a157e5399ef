package splitter

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// MarkdownSplitter parses input as Markdown and emits one segment per list
// item, header line, fenced/indented code block (fences included), and
// blockquote line, sentence-splitting ordinary paragraphs (and any
// unrecognized block kind) in place.
type MarkdownSplitter struct {
	md goldmark.Markdown
}

// NewMarkdownSplitter constructs a Markdown-aware splitter with GFM tables
// enabled (so "table" falls into the documented unknown-block fallback
// only for engines without the extension; here it parses structurally but
// is still walked through the generic fallback below since this core
// doesn't need per-cell segments).
func NewMarkdownSplitter() *MarkdownSplitter {
	return &MarkdownSplitter{md: goldmark.New(goldmark.WithExtensions(extension.Table))}
}

func (m *MarkdownSplitter) Split(ctx context.Context, source string) (<-chan TextSegment, error) {
	out := make(chan TextSegment)
	go func() {
		defer close(out)
		for _, seg := range m.splitSync(source) {
			select {
			case <-ctx.Done():
				return
			case out <- seg:
			}
		}
	}()
	return out, nil
}

func (m *MarkdownSplitter) splitSync(source string) []TextSegment {
	if strings.TrimSpace(source) == "" {
		return nil
	}
	src := []byte(source)
	doc := m.md.Parser().Parse(text.NewReader(src))

	var segments []TextSegment
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		segments = append(segments, m.walkBlock(n, src)...)
	}
	return segments
}

// walkBlock emits the segment(s) for one top-level block node. Blocks
// nested inside a list item are not walked separately; they belong to that
// item's segment.
func (m *MarkdownSplitter) walkBlock(n ast.Node, src []byte) []TextSegment {
	switch n.Kind() {
	case ast.KindHeading:
		start, end := expandToLineBounds(src, blockByteRange(n))
		return oneSegment(src, start, end)

	case ast.KindList:
		var out []TextSegment
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			if item.Kind() != ast.KindListItem {
				continue
			}
			lo, hi := blockByteRange(item)
			start, end := expandToLineBounds(src, lo, hi)
			out = append(out, oneSegment(src, start, end)...)
		}
		return out

	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		lo, hi := blockByteRange(n)
		start, end := expandFencedBounds(src, lo, hi, n.Kind() == ast.KindFencedCodeBlock)
		return oneSegment(src, start, end)

	case ast.KindBlockquote:
		var out []TextSegment
		forEachLine(n, func(lo, hi int) {
			start, end := expandToLineBounds(src, lo, hi)
			out = append(out, oneSegment(src, start, end)...)
		})
		return out

	case ast.KindParagraph:
		lo, hi := blockByteRange(n)
		if lo < 0 {
			return nil
		}
		return splitSentencesRaw(string(src[lo:hi]), lo)

	default:
		// Unknown block kinds (thematic breaks, HTML blocks, and anything
		// else not handled above): fall back to sentence-splitting the
		// block's raw text.
		lo, hi := blockByteRange(n)
		if lo < 0 {
			return nil
		}
		return splitSentencesRaw(string(src[lo:hi]), lo)
	}
}

// linesProvider is implemented by every goldmark block node via
// ast.BaseBlock.
type linesProvider interface {
	Lines() *text.Segments
}

// blockByteRange returns the union span [min-start, max-stop) of every
// Lines() segment under n (n included), or (-1, -1) if none can be found.
func blockByteRange(n ast.Node) (int, int) {
	lo, hi := -1, -1
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if lp, ok := node.(linesProvider); ok {
			lines := lp.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if lo == -1 || seg.Start < lo {
					lo = seg.Start
				}
				if hi == -1 || seg.Stop > hi {
					hi = seg.Stop
				}
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return lo, hi
}

// forEachLine invokes fn once per individual Lines() segment under n, in
// document order (used for per-line blockquote emission).
func forEachLine(n ast.Node, fn func(lo, hi int)) {
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if lp, ok := node.(linesProvider); ok {
			lines := lp.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				fn(seg.Start, seg.Stop)
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
}

// expandToLineBounds widens [lo, hi) to the full raw source line(s)
// containing it, recovering markers goldmark strips from Lines() (list
// bullets, header '#' prefixes, blockquote '>' prefixes) by bounded
// backward/forward search for the nearest newlines — never exceeding the
// original text's bounds.
func expandToLineBounds(src []byte, lo, hi int) (int, int) {
	if lo < 0 {
		return 0, 0
	}
	start := lo
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := hi
	for end < len(src) && src[end] != '\n' {
		end++
	}
	return start, end
}

// expandFencedBounds widens a fenced code block's content-only Lines()
// span to include the opening and (if present) closing fence lines.
func expandFencedBounds(src []byte, lo, hi int, fenced bool) (int, int) {
	start, end := expandToLineBounds(src, lo, hi)
	if !fenced {
		return start, end
	}
	// Opening fence is the raw line immediately above the content.
	if start > 0 {
		openEnd := start - 1 // the newline right before content
		openStart := openEnd
		for openStart > 0 && src[openStart-1] != '\n' {
			openStart--
		}
		if bytes.HasPrefix(bytes.TrimSpace(src[openStart:openEnd]), []byte("```")) ||
			bytes.HasPrefix(bytes.TrimSpace(src[openStart:openEnd]), []byte("~~~")) {
			start = openStart
		}
	}
	// Closing fence is the raw line immediately below the content.
	if end < len(src) {
		closeStart := end + 1
		closeEnd := closeStart
		for closeEnd < len(src) && src[closeEnd] != '\n' {
			closeEnd++
		}
		if closeStart <= len(src) && (bytes.HasPrefix(bytes.TrimSpace(src[min(closeStart, len(src)):closeEnd]), []byte("```")) ||
			bytes.HasPrefix(bytes.TrimSpace(src[min(closeStart, len(src)):closeEnd]), []byte("~~~"))) {
			end = closeEnd
		}
	}
	return start, end
}

func oneSegment(src []byte, start, end int) []TextSegment {
	if start < 0 || end > len(src) || start >= end {
		return nil
	}
	trimmed := strings.TrimSpace(string(src[start:end]))
	if trimmed == "" {
		return nil
	}
	return []TextSegment{{Text: trimmed, Start: start, End: end}}
}
