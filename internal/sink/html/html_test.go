package html

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/kimo/internal/sink"
)

func TestRenderStripsScripts(t *testing.T) {
	out := Render(sink.Block{Path: "ai", Text: "hello <script>alert(1)</script>"})
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestRenderConvertsMarkdownLinks(t *testing.T) {
	out := Render(sink.Block{Path: "search", Text: "[Paris](https://duckduckgo.com/Paris)"})
	assert.Contains(t, out, `href="https://duckduckgo.com/Paris"`)
}

func TestRenderKeepsLineBreaks(t *testing.T) {
	out := Render(sink.Block{Path: "image", Text: "Image Analysis:\ncat (91%)"})
	assert.Contains(t, out, "<br")
}

func TestRenderKeepsBlockClasses(t *testing.T) {
	out := Render(sink.Block{Path: "image", Text: "Failed to analyze image", Error: true})
	assert.Contains(t, out, `<div class="block block-image block-error">`)

	out = Render(sink.Block{Path: "search", Text: "Paris"})
	assert.Contains(t, out, `<div class="block block-search">`)
}

func TestRenderDropsForeignClasses(t *testing.T) {
	out := Render(sink.Block{Path: "ai", Text: `<span class="block-error">x</span>`})
	assert.Equal(t, 1, strings.Count(out, "class="))
}

func TestSinkWritesFragment(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)
	require.NoError(t, s.Display(context.Background(), sink.Block{Text: "ok"}))
	assert.Contains(t, buf.String(), "ok")
}
