package multi

import (
	"context"
	"errors"

	"github.com/hejijunhao/kimo/internal/sink"
)

// Multi fans out blocks and loading transitions to several sinks.
// If one sink fails, the remaining sinks still receive the block.
type Multi struct {
	sinks []sink.Sink
}

// New creates a Multi that fans out to the given sinks.
func New(sinks ...sink.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Display delivers b to every wrapped sink. Errors are collected but do
// not prevent delivery to subsequent sinks.
func (m *Multi) Display(ctx context.Context, b sink.Block) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Display(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) SetLoading(on bool) {
	for _, s := range m.sinks {
		s.SetLoading(on)
	}
}

// Close calls Close on every wrapped sink, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
