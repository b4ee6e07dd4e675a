package sink

import "context"

// Block is one rendered result of a dispatch.
type Block struct {
	Path  string `json:"path"`
	Text  string `json:"text"`
	Error bool   `json:"error,omitempty"`
}

// Sink defines the interface for display destinations. SetLoading is
// called with true when the first dispatch starts and false when the last
// in-flight dispatch finishes.
type Sink interface {
	Display(ctx context.Context, b Block) error
	SetLoading(on bool)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Display(context.Context, Block) error { return nil }
func (Nop) SetLoading(bool)                      {}
func (Nop) Close() error                         { return nil }
