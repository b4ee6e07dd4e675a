// Package server exposes the assistant over HTTP for the browser front-end.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hejijunhao/kimo/internal/dispatch"
	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink"
	"github.com/hejijunhao/kimo/internal/theme"
)

const (
	defaultMaxUpload  = 20 << 20
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Assistant is what the HTTP API drives.
type Assistant interface {
	DispatchTo(ctx context.Context, in model.Input, s sink.Sink) dispatch.Result
	History() []model.SessionEntry
	Theme() theme.Theme
	ToggleTheme(ctx context.Context) (theme.Theme, error)
	Degraded() error
	Capabilities() map[string]string
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUpload limits request bodies. Default: 20 MiB.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server routes API requests to the assistant.
type Server struct {
	a         Assistant
	maxUpload int64
	logger    *slog.Logger
	router    chi.Router
}

// New creates a Server and registers its routes.
func New(a Assistant, opts ...Option) *Server {
	s := &Server{a: a, maxUpload: defaultMaxUpload, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/submit", s.handleSubmit)
		r.Post("/upload", s.handleUpload)
		r.Post("/draw", s.handleDraw)
		r.Post("/voice", s.handleVoice)
		r.Get("/history", s.handleHistory)
		r.Get("/theme", s.handleTheme)
		r.Post("/theme/toggle", s.handleThemeToggle)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
