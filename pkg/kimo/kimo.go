package kimo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hejijunhao/kimo/internal/dispatch"
	"github.com/hejijunhao/kimo/internal/gateway"
	"github.com/hejijunhao/kimo/internal/gateway/encoder"
	"github.com/hejijunhao/kimo/internal/gateway/gemini"
	"github.com/hejijunhao/kimo/internal/gateway/vision"
	"github.com/hejijunhao/kimo/internal/history"
	"github.com/hejijunhao/kimo/internal/refresh"
	"github.com/hejijunhao/kimo/internal/search"
	"github.com/hejijunhao/kimo/internal/store"
	"github.com/hejijunhao/kimo/internal/theme"

	_ "github.com/hejijunhao/kimo/internal/store/file"
	_ "github.com/hejijunhao/kimo/internal/store/memory"
	_ "github.com/hejijunhao/kimo/internal/store/sqlite"
)

// Assistant wires the session log, model gateways and dispatcher together.
// Safe for concurrent use.
type Assistant struct {
	store      store.Store
	log        *history.Log
	theme      *theme.Preference
	gateway    *gateway.Gateway
	dispatcher *dispatch.Dispatcher
	refresher  *refresh.Refresher
	degraded   error
}

// New builds an Assistant. Model loading failures do not fail New; they
// are reported by Degraded and the affected features answer with their
// error messages.
func New(ctx context.Context, opts ...Option) (*Assistant, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kimo: %w", err)
	}

	st := o.store
	if st == nil {
		var err error
		if st, err = store.Open(cfg.Store.Driver, cfg.Store.Path); err != nil {
			return nil, fmt.Errorf("kimo: %w", err)
		}
	}
	a := &Assistant{store: st}

	var err error
	if a.log, err = history.Open(ctx, st); err != nil {
		st.Close()
		return nil, fmt.Errorf("kimo: %w", err)
	}
	if a.theme, err = theme.Load(ctx, st); err != nil {
		st.Close()
		return nil, fmt.Errorf("kimo: %w", err)
	}

	client := gemini.NewClient(cfg.GenAI.APIKey, cfg.GenAI.Model)

	models := o.models
	if models == nil {
		enc := encoder.New(cfg.Models.EncoderModelPath, cfg.Models.VocabPath, cfg.Models.LibraryPath)
		gwOpts := []gateway.Option{
			gateway.WithImageClassifier(vision.New(cfg.Models.ImageModelPath, cfg.Models.LabelsPath,
				vision.WithTopK(cfg.Models.TopK), vision.WithLibraryPath(cfg.Models.LibraryPath))),
			gateway.WithTextEncoder(enc),
			gateway.WithPlagiarismChecker(encoder.NewChecker(enc, cfg.Models.CorpusDir)),
			gateway.WithHandwritingRecognizer(gemini.NewRecognizer(client)),
			gateway.WithLogger(o.logger),
		}
		if cfg.Models.BestEffort {
			gwOpts = append(gwOpts, gateway.WithBestEffort())
		}
		a.gateway = gateway.New(gwOpts...)
		if err := a.gateway.Init(ctx); err != nil {
			a.degraded = err
			o.logger.Warn(DegradedNotice, "error", err)
		}
		models = a.gateway
		a.startRefresher(ctx, o)
	}

	responder, transcriber := o.responder, o.transcriber
	if cfg.GenAI.APIKey != "" {
		if responder == nil {
			responder = gemini.NewResponder(client)
		}
		if transcriber == nil {
			transcriber = gemini.NewTranscriber(client)
		}
	}

	dOpts := []dispatch.Option{
		dispatch.WithSink(o.sink),
		dispatch.WithSearchTimeout(cfg.Search.Timeout),
		dispatch.WithLogger(o.logger),
	}
	if responder != nil {
		dOpts = append(dOpts, dispatch.WithResponder(responder))
	}
	if transcriber != nil {
		dOpts = append(dOpts, dispatch.WithTranscriber(transcriber))
	}
	if o.isSearch != nil {
		dOpts = append(dOpts, dispatch.WithSearchPredicate(o.isSearch))
	}
	searcher := search.New(cfg.Search.Endpoint, search.WithLogger(o.logger))
	a.dispatcher = dispatch.New(models, searcher, a.log, dOpts...)

	return a, nil
}

func (a *Assistant) startRefresher(ctx context.Context, o options) {
	cfg := o.cfg.Refresh
	if cfg.Interval <= 0 {
		return
	}
	var rOpts []refresh.Option
	rOpts = append(rOpts, refresh.WithLogger(o.logger))
	if cfg.Watch {
		dir := filepath.Dir(o.cfg.Models.ImageModelPath)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			rOpts = append(rOpts, refresh.WithWatch(dir))
		}
	}
	r := refresh.New(a.gateway, cfg.Interval, rOpts...)
	// The refresher outlives the construction context.
	if err := r.Start(context.WithoutCancel(ctx)); err != nil {
		o.logger.Warn("asset refresh disabled", "error", err)
		return
	}
	a.refresher = r
}

// Dispatch processes one input and renders it to the configured sink.
func (a *Assistant) Dispatch(ctx context.Context, in Input) Result {
	return a.dispatcher.Dispatch(ctx, in)
}

// DispatchTo is Dispatch with the result blocks also delivered to s.
func (a *Assistant) DispatchTo(ctx context.Context, in Input, s Sink) Result {
	return a.dispatcher.DispatchTo(ctx, in, s)
}

// History returns the session log in insertion order.
func (a *Assistant) History() []Entry {
	return a.log.Entries()
}

// Theme returns the current display preference.
func (a *Assistant) Theme() Theme {
	return a.theme.Current()
}

// ToggleTheme flips and persists the display preference.
func (a *Assistant) ToggleTheme(ctx context.Context) (Theme, error) {
	return a.theme.Toggle(ctx)
}

// Loading reports whether any dispatch is in flight.
func (a *Assistant) Loading() bool {
	return a.dispatcher.Loading()
}

// Degraded returns the model loading error, or nil when every capability
// loaded.
func (a *Assistant) Degraded() error {
	return a.degraded
}

// Capabilities reports the load state of each local capability. It is
// empty when models were supplied with WithModels.
func (a *Assistant) Capabilities() map[string]string {
	out := map[string]string{}
	if a.gateway == nil {
		return out
	}
	for name, st := range a.gateway.States() {
		out[name] = st.String()
	}
	return out
}

// Close stops background work and releases models and storage.
func (a *Assistant) Close() error {
	if a.refresher != nil {
		a.refresher.Stop()
	}
	var errs []error
	if a.gateway != nil {
		errs = append(errs, a.gateway.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}
