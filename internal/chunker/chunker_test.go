package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fragmentBody(t *testing.T, content string) string {
	t.Helper()
	idx := strings.Index(content, "\n")
	require.Greater(t, idx, 0, "fragment must start with a header line")
	require.True(t, strings.HasPrefix(content, "[file="))
	return content[idx+1:]
}

func TestSplitSmallContentSingleFragment(t *testing.T) {
	c := New(1500, 200)
	fragments := c.Split("hello world", "notes/a.txt", "")
	require.Len(t, fragments, 1)
	require.Equal(t, 0, fragments[0].Index)
	require.Equal(t, "[file=notes/a.txt]\nhello world", fragments[0].Content)
	require.Equal(t, "notes/a.txt", fragments[0].Metadata.FilePath)
	require.Equal(t, 1, fragments[0].Metadata.StartLine)
	require.Equal(t, 1, fragments[0].Metadata.EndLine)
}

func TestSplitBlankContent(t *testing.T) {
	c := New(100, 20)
	require.Empty(t, c.Split("", "a.go", "go"))
	require.Empty(t, c.Split("   \n\t\n", "a.go", "go"))
}

func TestSplitDeterministic(t *testing.T) {
	c := New(120, 30)
	content := buildGoSource(20)
	first := c.Split(content, "pkg/gen.go", "go")
	second := c.Split(content, "pkg/gen.go", "go")
	require.Equal(t, first, second)
}

func TestSplitBodyWithinBound(t *testing.T) {
	chunkSize, overlap := 100, 20
	c := New(chunkSize, overlap)
	content := buildGoSource(30)
	fragments := c.Split(content, "pkg/gen.go", "go")
	require.Greater(t, len(fragments), 1)
	for _, frag := range fragments {
		body := fragmentBody(t, frag.Content)
		require.LessOrEqual(t, len(body), chunkSize+overlap,
			"fragment %d body exceeds bound", frag.Index)
	}
}

func TestSplitWindowsFallback(t *testing.T) {
	chunkSize, overlap := 100, 20
	c := New(chunkSize, overlap)
	content := strings.Repeat("a", 250)
	fragments := c.Split(content, "blob.txt", "")
	require.Len(t, fragments, 4)
	for _, frag := range fragments {
		body := fragmentBody(t, frag.Content)
		require.LessOrEqual(t, len(body), chunkSize)
	}
	// windows advance by chunkSize-overlap
	require.Equal(t, 100, len(fragmentBody(t, fragments[0].Content)))
	require.Equal(t, 100, len(fragmentBody(t, fragments[1].Content)))
	require.Equal(t, 10, len(fragmentBody(t, fragments[3].Content)))
}

func TestSplitGoSymbolHeader(t *testing.T) {
	c := New(1500, 200)
	content := "func Hello() string {\n\treturn \"hi\"\n}\n"
	fragments := c.Split(content, "pkg/hello.go", "go")
	require.Len(t, fragments, 1)
	require.True(t, strings.HasPrefix(fragments[0].Content, "[file=pkg/hello.go] [symbol=Hello]\n"))
	require.Equal(t, "Hello", fragments[0].Metadata.FunctionName)
}

func TestSplitKeepsEveryDeclaration(t *testing.T) {
	c := New(100, 20)
	content := buildGoSource(25)
	fragments := c.Split(content, "pkg/gen.go", "go")
	joined := make([]string, 0, len(fragments))
	for _, frag := range fragments {
		joined = append(joined, frag.Content)
	}
	all := strings.Join(joined, "\n")
	for i := 0; i < 25; i++ {
		require.Contains(t, all, fmt.Sprintf("Fn%d", i))
	}
}

func TestSplitLineNumbersIncrease(t *testing.T) {
	c := New(40, 0)
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, "line number %02d padded\n", i)
	}
	fragments := c.Split(sb.String(), "log.txt", "")
	require.Greater(t, len(fragments), 1)
	require.Equal(t, 1, fragments[0].Metadata.StartLine)
	for i := 1; i < len(fragments); i++ {
		require.Greater(t, fragments[i].Metadata.StartLine, fragments[i-1].Metadata.StartLine)
		require.GreaterOrEqual(t, fragments[i].Metadata.EndLine, fragments[i].Metadata.StartLine)
	}
}

func TestSplitMarkdownHeadings(t *testing.T) {
	c := New(60, 10)
	content := "# Guide\n\nintro paragraph with some words\n\n# Setup\n\ninstall steps described here\n\n# Usage\n\nrun the binary with a config\n"
	fragments := c.Split(content, "docs/guide.md", "markdown")
	require.Greater(t, len(fragments), 1)
	require.Equal(t, "Guide", fragments[0].Metadata.FunctionName)
}

func buildGoSource(funcs int) string {
	var sb strings.Builder
	sb.WriteString("package gen\n")
	for i := 0; i < funcs; i++ {
		fmt.Fprintf(&sb, "\nfunc Fn%d() int {\n\treturn %d\n}\n", i, i)
	}
	return sb.String()
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{name: "h1", markdown: "# Getting Started\n\nbody", want: "Getting Started"},
		{name: "h2 before h1", markdown: "## Overview\n\n# Later\n", want: "Overview"},
		{name: "skips h3", markdown: "### Deep\n\n# Real Title\n", want: "Real Title"},
		{name: "fallback first line", markdown: "just a plain line\nmore\n", want: "just a plain line"},
		{name: "empty", markdown: "  \n\n", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractTitle(tc.markdown))
		})
	}
}

func TestLanguageForPath(t *testing.T) {
	require.Equal(t, "go", LanguageForPath("internal/app/main.go"))
	require.Equal(t, "javascript", LanguageForPath("web/src/App.tsx"))
	require.Equal(t, "markdown", LanguageForPath("README.md"))
	require.Equal(t, "", LanguageForPath("Makefile"))
}
