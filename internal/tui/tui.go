// Package tui is the interactive terminal front-end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hejijunhao/kimo/internal/dispatch"
	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/theme"
	"github.com/hejijunhao/kimo/internal/upload"
)

const maxScrollback = 500

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Assistant is what the terminal UI drives.
type Assistant interface {
	Dispatch(ctx context.Context, in model.Input) dispatch.Result
	History() []model.SessionEntry
	Theme() theme.Theme
	ToggleTheme(ctx context.Context) (theme.Theme, error)
	Degraded() error
}

// Renderer formats blocks for display.
type Renderer interface {
	Render(b sink.Block) string
	SetTheme(t theme.Theme) error
}

type resultMsg struct {
	res dispatch.Result
}

type noticeMsg string

// Model is the bubbletea model of an interactive session.
type Model struct {
	ctx      context.Context
	a        Assistant
	render   Renderer
	input    textinput.Model
	spin     spinner.Model
	pending  int
	lines    []string
	width    int
	height   int
	quitting bool
}

// New creates the session model.
func New(ctx context.Context, a Assistant, r Renderer) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything, or /help"
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{ctx: ctx, a: a, render: r, input: ti, spin: sp, width: 80, height: 24}
	if a.Degraded() != nil {
		m.lines = append(m.lines, noticeStyle.Render(dispatch.MsgDegraded))
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			m.push(promptStyle.Render("> ") + line)
			if strings.HasPrefix(line, "/") {
				return m.command(line)
			}
			return m.start(model.Submit{Text: line})
		}

	case resultMsg:
		m.pending--
		for _, b := range msg.res.Blocks {
			m.push(strings.TrimRight(m.render.Render(b), "\n"))
		}
		if msg.res.Prefill != "" {
			m.input.SetValue(msg.res.Prefill)
			m.input.CursorEnd()
		}
		return m, nil

	case noticeMsg:
		m.push(noticeStyle.Render(string(msg)))
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start dispatches in the background; the spinner runs while any
// dispatch is pending.
func (m Model) start(in model.Input) (tea.Model, tea.Cmd) {
	m.pending++
	run := func() tea.Msg {
		return resultMsg{res: m.a.Dispatch(m.ctx, in)}
	}
	if m.pending == 1 {
		return m, tea.Batch(run, m.spin.Tick)
	}
	return m, run
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit
	case "/help":
		m.push(helpStyle.Render("/upload <file>  /draw <png>  /voice <audio>  /theme  /history  /quit"))
		return m, nil
	case "/theme":
		t, err := m.a.ToggleTheme(m.ctx)
		if err != nil {
			m.push(noticeStyle.Render("Failed to save theme: " + err.Error()))
			return m, nil
		}
		if err := m.render.SetTheme(t); err != nil {
			m.push(noticeStyle.Render(err.Error()))
		}
		m.push(helpStyle.Render("Theme: " + string(t)))
		return m, nil
	case "/history":
		entries := m.a.History()
		if len(entries) == 0 {
			m.push(helpStyle.Render("No history yet."))
		}
		for _, e := range entries {
			m.push(fmt.Sprintf("%s  %-11s %s", e.Timestamp.Local().Format("15:04:05"), e.Type, e.Summary()))
		}
		return m, nil
	case "/upload", "/draw", "/voice":
		if arg == "" {
			m.push(noticeStyle.Render("usage: " + name + " <path>"))
			return m, nil
		}
		load := map[string]func(string) (model.Input, error){
			"/upload": upload.File,
			"/draw":   upload.Drawing,
			"/voice":  upload.Voice,
		}[name]
		in, err := load(arg)
		if err != nil {
			m.push(noticeStyle.Render(err.Error()))
			return m, nil
		}
		return m.start(in)
	}
	m.push(noticeStyle.Render("unknown command " + name + ", try /help"))
	return m, nil
}

func (m *Model) push(line string) {
	m.lines = append(m.lines, line)
	if n := len(m.lines); n > maxScrollback {
		m.lines = m.lines[n-maxScrollback:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	// Keep the newest lines that fit above the prompt.
	visible := m.lines
	if room := m.height - 3; room > 0 && len(visible) > room {
		visible = visible[len(visible)-room:]
	}
	for _, l := range visible {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.pending > 0 {
		b.WriteString(m.spin.View() + " ")
	}
	b.WriteString(m.input.View())
	return b.String()
}

// Run starts the interactive session and blocks until the user quits.
func Run(ctx context.Context, a Assistant, r Renderer) error {
	p := tea.NewProgram(New(ctx, a, r), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
