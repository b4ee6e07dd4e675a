// Package terminal renders blocks as styled markdown on a terminal.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/theme"
)

const defaultWidth = 80

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	loadingStyle = lipgloss.NewStyle().Faint(true)
)

// Terminal writes rendered blocks to w. When w is not a terminal, output
// is plain text and loading transitions are not shown.
type Terminal struct {
	mu       sync.Mutex
	w        io.Writer
	tty      bool
	width    int
	renderer *glamour.TermRenderer
}

// New creates a Terminal sink styled for t.
func New(w io.Writer, t theme.Theme) (*Terminal, error) {
	s := &Terminal{w: w, width: defaultWidth}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			s.width = width
		}
	}
	if err := s.SetTheme(t); err != nil {
		return nil, err
	}
	return s, nil
}

// SetTheme switches the markdown style.
func (s *Terminal) SetTheme(t theme.Theme) error {
	style := "notty"
	if s.tty {
		style = string(t)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(s.width),
	)
	if err != nil {
		return fmt.Errorf("terminal sink: %w", err)
	}
	s.mu.Lock()
	s.renderer = r
	s.mu.Unlock()
	return nil
}

// Render formats b without writing it.
func (s *Terminal) Render(b sink.Block) string {
	if b.Error {
		return errorStyle.Render(b.Text) + "\n"
	}
	s.mu.Lock()
	r := s.renderer
	s.mu.Unlock()
	// Line breaks inside a block are significant.
	out, err := r.Render(strings.ReplaceAll(b.Text, "\n", "  \n"))
	if err != nil {
		return b.Text + "\n"
	}
	return out
}

func (s *Terminal) Display(_ context.Context, b sink.Block) error {
	out := s.Render(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, out); err != nil {
		return fmt.Errorf("terminal sink: %w", err)
	}
	return nil
}

func (s *Terminal) SetLoading(on bool) {
	if !s.tty {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		fmt.Fprint(s.w, loadingStyle.Render("Thinking..."))
		return
	}
	fmt.Fprint(s.w, "\r\033[K")
}

func (s *Terminal) Close() error { return nil }
