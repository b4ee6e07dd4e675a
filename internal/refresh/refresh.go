// Package refresh periodically revalidates cached model assets.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultInterval = time.Hour
	defaultDebounce = 2 * time.Second
)

// Revalidator reloads assets that changed since they were loaded.
type Revalidator interface {
	Revalidate(ctx context.Context) error
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithWatch also revalidates when anything under the given directories
// changes.
func WithWatch(dirs ...string) Option {
	return func(r *Refresher) { r.dirs = append(r.dirs, dirs...) }
}

// WithDebounce sets how long file events must settle before revalidating.
func WithDebounce(d time.Duration) Option {
	return func(r *Refresher) { r.debounce = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Refresher) { r.logger = l }
}

// Refresher runs revalidation in the background. Errors are logged and
// never propagated.
type Refresher struct {
	target   Revalidator
	interval time.Duration
	debounce time.Duration
	dirs     []string
	logger   *slog.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// New creates a Refresher. A non-positive interval uses DefaultInterval.
func New(target Revalidator, interval time.Duration, opts ...Option) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Refresher{
		target:   target,
		interval: interval,
		debounce: defaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the background loop. It returns an error only when a
// watched directory cannot be watched.
func (r *Refresher) Start(ctx context.Context) error {
	if len(r.dirs) > 0 {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		for _, d := range r.dirs {
			if err := w.Add(d); err != nil {
				w.Close()
				return fmt.Errorf("refresh: watch %s: %w", d, err)
			}
		}
		r.watcher = w
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop ends the loop and waits for it to exit.
func (r *Refresher) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
		if r.watcher != nil {
			r.watcher.Close()
		}
	})
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	settle := time.NewTimer(r.debounce)
	settle.Stop()
	defer settle.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if r.watcher != nil {
		events, errs = r.watcher.Events, r.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.run(ctx, "interval")
		case <-settle.C:
			r.run(ctx, "file change")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				settle.Reset(r.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.logger.Warn("asset watch error", "error", err)
		}
	}
}

func (r *Refresher) run(ctx context.Context, reason string) {
	if err := r.target.Revalidate(ctx); err != nil {
		r.logger.Warn("asset revalidation failed", "reason", reason, "error", err)
		return
	}
	r.logger.Debug("assets revalidated", "reason", reason)
}
