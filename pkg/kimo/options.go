package kimo

import (
	"log/slog"

	"github.com/hejijunhao/kimo/internal/config"
	"github.com/hejijunhao/kimo/internal/dispatch"
	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/store"
)

type options struct {
	cfg         config.Config
	store       store.Store
	sink        sink.Sink
	models      dispatch.Models
	responder   dispatch.Responder
	transcriber dispatch.Transcriber
	isSearch    func(string) bool
	logger      *slog.Logger
}

// Option configures an Assistant.
type Option func(*options)

// WithConfig replaces the built-in defaults. Default: config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithStore uses s instead of opening the configured store driver. The
// Assistant closes it on Close.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithSink sets where results and loading transitions are rendered.
func WithSink(s Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithModels bypasses local model loading and uses m for image,
// plagiarism and handwriting requests.
func WithModels(m dispatch.Models) Option {
	return func(o *options) { o.models = m }
}

// WithResponder overrides the generative model used for free-text queries.
func WithResponder(r dispatch.Responder) Option {
	return func(o *options) { o.responder = r }
}

// WithTranscriber overrides the speech transcriber.
func WithTranscriber(t dispatch.Transcriber) Option {
	return func(o *options) { o.transcriber = t }
}

// WithSearchPredicate decides which submitted texts go to web search.
func WithSearchPredicate(f func(string) bool) Option {
	return func(o *options) { o.isSearch = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func defaultOptions() options {
	return options{
		cfg:    config.Default(),
		sink:   sink.Nop{},
		logger: slog.Default(),
	}
}
