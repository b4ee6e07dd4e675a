package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/kimo/internal/config"
	"github.com/hejijunhao/kimo/internal/gateway"
	"github.com/hejijunhao/kimo/internal/logging"
	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/sink/terminal"
	"github.com/hejijunhao/kimo/internal/theme"
	"github.com/hejijunhao/kimo/pkg/kimo"
)

// errFailed signals a failure that was already shown to the user.
var errFailed = errors.New("failed")

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "kimo",
		Short: "Multi-modal assistant for images, handwriting, text and questions",
		Long: `kimo classifies images, reads handwriting, scores text files for
plagiarism and answers questions through web search or a generative model.
Every completed interaction is kept in the session history.

Examples:
  kimo ask capital of France        # web search
  kimo ask tell me a joke           # generative answer
  kimo upload photo.jpg             # image analysis + handwriting
  kimo upload essay.txt             # plagiarism score
  kimo draw canvas.png              # handwriting from a drawing
  kimo history --json               # session history as JSON
  kimo serve --addr :8080           # HTTP API for the browser page
  kimo tui                          # interactive session`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML config file (default $KIMO_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging")

	rootCmd.AddCommand(askCmd, uploadCmd, drawCmd, voiceCmd, historyCmd, themeCmd, serveCmd, tuiCmd)
}

// session is the assistant plus its terminal renderer.
type session struct {
	*kimo.Assistant
	cfg    config.Config
	term   *terminal.Terminal
	closer io.Closer
}

func (s *session) Close() error {
	err := s.Assistant.Close()
	s.closer.Close()
	return err
}

type setupOpts struct {
	display    bool // render results to out as they complete
	jsonLogs   bool // stdout carries machine output
	background bool // long-running: keep asset refresh on
	quietLogs  bool // the terminal is owned by the UI
	noModels   bool // the command never dispatches
	out        io.Writer
}

// offlineModels stands in for the gateway in commands that only read or
// write stored state.
type offlineModels struct{}

func (offlineModels) ClassifyImage(context.Context, image.Image) ([]model.Prediction, error) {
	return nil, gateway.ErrNotReady
}

func (offlineModels) CheckPlagiarism(context.Context, string) (float64, error) {
	return 0, gateway.ErrNotReady
}

func (offlineModels) RecognizeHandwriting(context.Context, image.Image) (string, error) {
	return "", gateway.ErrNotReady
}

func setup(cmd *cobra.Command, o setupOpts) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if !o.background {
		cfg.Refresh.Interval = 0
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if o.quietLogs && cfg.Log.File == "" {
		level = logging.ParseLevel("error")
	}
	closer, err := logging.Init(o.jsonLogs, level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	if o.out == nil {
		o.out = os.Stdout
	}
	term, err := terminal.New(o.out, theme.Light)
	if err != nil {
		closer.Close()
		return nil, err
	}

	var out sink.Sink = sink.Nop{}
	if o.display {
		out = term
	}
	opts := []kimo.Option{kimo.WithConfig(cfg), kimo.WithSink(out)}
	if o.noModels {
		opts = append(opts, kimo.WithModels(offlineModels{}))
	}
	a, err := kimo.New(cmd.Context(), opts...)
	if err != nil {
		closer.Close()
		return nil, err
	}
	if err := term.SetTheme(a.Theme()); err != nil {
		a.Close()
		closer.Close()
		return nil, err
	}
	if a.Degraded() != nil && !o.quietLogs {
		fmt.Fprintln(cmd.ErrOrStderr(), kimo.DegradedNotice)
	}
	return &session{Assistant: a, cfg: cfg, term: term, closer: closer}, nil
}

// failed reports whether any block of res is an error.
func failed(res kimo.Result) bool {
	for _, b := range res.Blocks {
		if b.Error {
			return true
		}
	}
	return false
}
