package splitter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func splitMarkdown(t *testing.T, source string) []TextSegment {
	t.Helper()
	segs, err := SplitAll(context.Background(), NewMarkdownSplitter(), source)
	require.NoError(t, err)
	return segs
}

func TestMarkdownHeading(t *testing.T) {
	segs := splitMarkdown(t, "# Title\n\nSome body text. More body text.\n")
	require.NotEmpty(t, segs)
	require.Equal(t, "# Title", segs[0].Text)
}

func TestMarkdownListItems(t *testing.T) {
	source := "- first item\n- second item\n- third item\n"
	segs := splitMarkdown(t, source)
	require.Len(t, segs, 3)
	require.Equal(t, "- first item", segs[0].Text)
	require.Equal(t, "- second item", segs[1].Text)
	require.Equal(t, "- third item", segs[2].Text)
}

func TestMarkdownFencedCodeBlockIncludesFences(t *testing.T) {
	source := "```go\nfmt.Println(\"hi\")\n```\n"
	segs := splitMarkdown(t, source)
	require.Len(t, segs, 1)
	require.True(t, strings.HasPrefix(segs[0].Text, "```"))
	require.True(t, strings.HasSuffix(segs[0].Text, "```"))
}

func TestMarkdownBlockquotePerLine(t *testing.T) {
	source := "> line one\n> line two\n"
	segs := splitMarkdown(t, source)
	require.Len(t, segs, 2)
	require.Contains(t, segs[0].Text, "line one")
	require.Contains(t, segs[1].Text, "line two")
}

func TestMarkdownParagraphSentenceSplits(t *testing.T) {
	source := "This is sentence one. This is sentence two.\n"
	segs := splitMarkdown(t, source)
	require.Len(t, segs, 2)
}

func TestMarkdownOffsetsWithinOriginal(t *testing.T) {
	source := "# Heading\n\nBody sentence here. Another one.\n"
	segs := splitMarkdown(t, source)
	for _, s := range segs {
		require.GreaterOrEqual(t, s.Start, 0)
		require.LessOrEqual(t, s.End, len(source))
		require.LessOrEqual(t, s.Start, s.End)
	}
}

func TestMarkdownEmptyInput(t *testing.T) {
	require.Empty(t, splitMarkdown(t, ""))
	require.Empty(t, splitMarkdown(t, "   \n  "))
}
