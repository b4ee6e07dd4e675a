package gateway

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hejijunhao/kimo/internal/model"
)

// Option configures a Gateway.
type Option func(*Gateway)

func WithImageClassifier(c ImageClassifier) Option {
	return func(g *Gateway) { g.images = c }
}

func WithPlagiarismChecker(c PlagiarismChecker) Option {
	return func(g *Gateway) { g.plagiarism = c }
}

func WithHandwritingRecognizer(r HandwritingRecognizer) Option {
	return func(g *Gateway) { g.handwriting = r }
}

func WithTextEncoder(e TextEncoder) Option {
	return func(g *Gateway) { g.encoder = e }
}

// WithBestEffort keeps successfully loaded capabilities available when
// another one fails to load. Without it a single failure degrades the
// whole gateway.
func WithBestEffort() Option {
	return func(g *Gateway) { g.bestEffort = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// Gateway fronts the model capabilities and tracks their readiness.
type Gateway struct {
	images      ImageClassifier
	plagiarism  PlagiarismChecker
	handwriting HandwritingRecognizer
	encoder     TextEncoder
	bestEffort  bool
	logger      *slog.Logger

	once    sync.Once
	initErr error

	mu     sync.RWMutex
	states map[string]State
}

// New creates a Gateway. Nothing is loaded until Init.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		logger: slog.Default(),
		states: make(map[string]State),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type namedLoader struct {
	name   string
	loader Loader
}

func (g *Gateway) loaders() []namedLoader {
	var out []namedLoader
	if g.images != nil {
		out = append(out, namedLoader{CapImage, g.images})
	}
	if g.plagiarism != nil {
		out = append(out, namedLoader{CapPlagiarism, g.plagiarism})
	}
	if g.handwriting != nil {
		out = append(out, namedLoader{CapHandwriting, g.handwriting})
	}
	if g.encoder != nil {
		out = append(out, namedLoader{CapEncoder, g.encoder})
	}
	return out
}

// Init loads every configured capability exactly once. Later calls return
// the first result. The returned error, if any, matches ErrModelLoad.
func (g *Gateway) Init(ctx context.Context) error {
	g.once.Do(func() {
		g.initErr = g.load(ctx)
	})
	return g.initErr
}

func (g *Gateway) load(ctx context.Context) error {
	caps := g.loaders()
	errs := make([]error, len(caps))

	eg, egCtx := errgroup.WithContext(ctx)
	loadCtx := egCtx
	if g.bestEffort {
		loadCtx = ctx
	}
	for i, c := range caps {
		eg.Go(func() error {
			if err := c.loader.Load(loadCtx); err != nil {
				errs[i] = &ModelLoadError{Capability: c.name, Err: err}
				if !g.bestEffort {
					return errs[i]
				}
			}
			return nil
		})
	}
	first := eg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	if first != nil {
		// One failure degrades everything; release what did load.
		for i, c := range caps {
			g.states[c.name] = Failed
			if errs[i] == nil {
				c.loader.Close()
			}
		}
		g.logger.Error("model loading failed", "error", first)
		return first
	}

	var failed []error
	for i, c := range caps {
		if errs[i] != nil {
			g.states[c.name] = Failed
			failed = append(failed, errs[i])
			g.logger.Warn("capability unavailable", "capability", c.name, "error", errs[i])
			continue
		}
		g.states[c.name] = Ready
	}
	if len(failed) == 0 {
		g.logger.Info("all models loaded", "capabilities", len(caps))
	}
	return errors.Join(failed...)
}

// State returns the availability of the named capability.
func (g *Gateway) State(name string) State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.states[name]
}

// States returns a snapshot of every known capability state.
func (g *Gateway) States() map[string]State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]State, len(g.states))
	for k, v := range g.states {
		out[k] = v
	}
	return out
}

func (g *Gateway) ready(name string) error {
	if g.State(name) != Ready {
		return ErrNotReady
	}
	return nil
}

func (g *Gateway) ClassifyImage(ctx context.Context, img image.Image) ([]model.Prediction, error) {
	if err := g.ready(CapImage); err != nil {
		return nil, err
	}
	return g.images.ClassifyImage(ctx, img)
}

func (g *Gateway) CheckPlagiarism(ctx context.Context, text string) (float64, error) {
	if err := g.ready(CapPlagiarism); err != nil {
		return 0, err
	}
	return g.plagiarism.CheckPlagiarism(ctx, text)
}

func (g *Gateway) RecognizeHandwriting(ctx context.Context, img image.Image) (string, error) {
	if err := g.ready(CapHandwriting); err != nil {
		return "", err
	}
	return g.handwriting.RecognizeHandwriting(ctx, img)
}

func (g *Gateway) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if err := g.ready(CapEncoder); err != nil {
		return nil, err
	}
	return g.encoder.Encode(ctx, texts)
}

// Revalidate asks every ready capability that supports it to reload changed
// assets. Errors are joined; a failed revalidation leaves the capability on
// its previous assets.
func (g *Gateway) Revalidate(ctx context.Context) error {
	var errs []error
	for _, c := range g.loaders() {
		rv, ok := c.loader.(Revalidator)
		if !ok || g.State(c.name) != Ready {
			continue
		}
		if err := rv.Revalidate(ctx); err != nil {
			errs = append(errs, &ModelLoadError{Capability: c.name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Close releases every loaded capability.
func (g *Gateway) Close() error {
	var errs []error
	for _, c := range g.loaders() {
		if g.State(c.name) != Ready {
			continue
		}
		if err := c.loader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
