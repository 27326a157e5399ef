package splitter

import (
	"context"
	"regexp"
	"strings"
)

// honorifics never end a sentence on their own, even when followed by
// whitespace and an uppercase letter.
var honorifics = map[string]bool{
	"Mr": true, "Mrs": true, "Ms": true, "Dr": true,
	"Prof": true, "Sr": true, "Jr": true,
}

// defaultBoundary matches a '.', '!' or '?' followed by whitespace and an
// uppercase letter. Go's RE2 engine has no lookbehind, so the honorific
// exclusion is applied as a post-filter on the preceding word instead of
// being baked into the pattern.
var defaultBoundary = regexp.MustCompile(`[.!?]\s+[A-Z]`)

// SentenceSplitter splits text into sentences using a boundary regex
// (default: punctuation + whitespace + uppercase letter) with an
// honorific-abbreviation exclusion list.
type SentenceSplitter struct {
	boundary *regexp.Regexp
	// skipHonorifics is only applied with the default boundary regex; a
	// caller-supplied regex is trusted as-is.
	skipHonorifics bool
}

// NewSentenceSplitter returns a sentence splitter. A nil boundary uses the
// default honorific-aware regex; a non-nil one replaces it entirely (and
// is used verbatim, without the honorific post-filter).
func NewSentenceSplitter(boundary *regexp.Regexp) *SentenceSplitter {
	if boundary == nil {
		return &SentenceSplitter{boundary: defaultBoundary, skipHonorifics: true}
	}
	return &SentenceSplitter{boundary: boundary, skipHonorifics: false}
}

// Split implements Splitter. Empty or whitespace-only input yields a
// closed, empty channel.
func (s *SentenceSplitter) Split(ctx context.Context, source string) (<-chan TextSegment, error) {
	out := make(chan TextSegment)
	go func() {
		defer close(out)
		for _, seg := range s.splitSync(source) {
			select {
			case <-ctx.Done():
				return
			case out <- seg:
			}
		}
	}()
	return out, nil
}

func (s *SentenceSplitter) splitSync(source string) []TextSegment {
	if strings.TrimSpace(source) == "" {
		return nil
	}
	breakpoints := s.findBreakpoints(source)

	var segments []TextSegment
	prev := 0
	for _, bp := range breakpoints {
		raw := source[prev:bp]
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			segments = append(segments, TextSegment{Text: trimmed, Start: prev, End: bp})
		}
		prev = bp
	}
	if raw := source[prev:]; strings.TrimSpace(raw) != "" {
		segments = append(segments, TextSegment{Text: strings.TrimSpace(raw), Start: prev, End: len(source)})
	}
	return segments
}

// findBreakpoints returns byte offsets right after a qualifying sentence
// boundary, in ascending order.
func (s *SentenceSplitter) findBreakpoints(source string) []int {
	matches := s.boundary.FindAllStringIndex(source, -1)
	var out []int
	for _, m := range matches {
		splitAt := m[0] + 1 // right after the punctuation rune
		if s.skipHonorifics && endsWithHonorific(source[:m[0]+1]) {
			continue
		}
		out = append(out, splitAt)
	}
	return out
}

// endsWithHonorific reports whether the run of letters immediately
// preceding the final punctuation character of upTo is a known honorific.
func endsWithHonorific(upTo string) bool {
	// upTo ends with the punctuation rune itself; strip it first.
	body := upTo[:len(upTo)-1]
	i := len(body)
	for i > 0 && isASCIILetter(rune(body[i-1])) {
		i--
	}
	word := body[i:]
	return honorifics[word]
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// splitSentencesRaw is a convenience used by the Markdown splitter to
// sentence-split a sub-span of text and rebase offsets onto the original
// source.
func splitSentencesRaw(text string, base int) []TextSegment {
	segs := NewSentenceSplitter(nil).splitSync(text)
	for i := range segs {
		segs[i].Start += base
		segs[i].End += base
	}
	return segs
}
