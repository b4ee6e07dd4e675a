package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/store"
)

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithIDFunc overrides the entry ID generator. Default: random UUIDs.
func WithIDFunc(f func() string) Option {
	return func(l *Log) { l.newID = f }
}

// WithKey stores the log under a different key. Default: sessionHistory.
func WithKey(key string) Option {
	return func(l *Log) { l.key = key }
}

// Log is the append-only session history. It is loaded once from the store
// and the whole sequence is written back on every append.
type Log struct {
	store store.Store
	key   string
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	entries []model.SessionEntry
}

// Open loads the log from s. Missing or malformed stored state yields an
// empty log; only store read failures are returned as errors.
func Open(ctx context.Context, s store.Store, opts ...Option) (*Log, error) {
	l := &Log{
		store: s,
		key:   store.KeySessionHistory,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}

	entries, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	l.entries = entries
	return l, nil
}

func (l *Log) load(ctx context.Context) ([]model.SessionEntry, error) {
	raw, err := l.store.Get(ctx, l.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: load: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	entries, err := decode(raw)
	if err != nil {
		slog.Debug("discarding malformed session history", "key", l.key, "error", err)
		return nil, nil
	}
	return entries, nil
}

// Append stamps the payload into a new entry, adds it to the in-memory
// sequence and rewrites the stored copy. The entry stays in memory even if
// the write fails; the error is returned for the caller to report.
func (l *Log) Append(ctx context.Context, p model.Payload) (model.SessionEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := model.NewEntry(p)
	e.ID = l.newID()
	e.Timestamp = l.now().UTC()
	if n := len(l.entries); n > 0 && e.Timestamp.Before(l.entries[n-1].Timestamp) {
		e.Timestamp = l.entries[n-1].Timestamp
	}
	l.entries = append(l.entries, e)

	data, err := encode(l.entries)
	if err != nil {
		return e, err
	}
	// Persisting is not bound to the caller.
	if err := l.store.Set(context.WithoutCancel(ctx), l.key, data); err != nil {
		return e, fmt.Errorf("history: persist: %w", err)
	}
	return e, nil
}

// Entries returns a copy of the log in insertion order.
func (l *Log) Entries() []model.SessionEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.SessionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
