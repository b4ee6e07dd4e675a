// Package html renders blocks as sanitized HTML fragments for the browser
// front-end.
package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/hejijunhao/kimo/internal/sink"
)

var (
	md     = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))
	policy = newPolicy()
)

// blockClass matches the wrapper classes Render emits and nothing else.
var blockClass = regexp.MustCompile(`^block( block-[a-z]+)*$`)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(blockClass).OnElements("div")
	return p
}

// Render converts the block's markdown to HTML and sanitizes it. Search
// abstracts and model output are untrusted, so nothing bypasses the policy.
func Render(b sink.Block) string {
	var buf bytes.Buffer
	class := "block"
	if b.Path != "" {
		class += " block-" + b.Path
	}
	if b.Error {
		class += " block-error"
	}
	fmt.Fprintf(&buf, `<div class="%s">`, class)
	if err := md.Convert([]byte(b.Text), &buf); err != nil {
		buf.WriteString("<p>")
		buf.WriteString(b.Text)
		buf.WriteString("</p>")
	}
	buf.WriteString("</div>")
	return policy.Sanitize(buf.String())
}

// Sink writes one rendered fragment per block to w.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

func New(w io.Writer) *Sink { return &Sink{w: w} }

func (s *Sink) Display(_ context.Context, b sink.Block) error {
	out := Render(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, out+"\n"); err != nil {
		return fmt.Errorf("html sink: %w", err)
	}
	return nil
}

func (s *Sink) SetLoading(bool) {}

func (s *Sink) Close() error { return nil }
