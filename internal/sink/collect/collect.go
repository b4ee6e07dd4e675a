// Package collect provides a sink that keeps everything in memory. The
// HTTP server uses one per request.
package collect

import (
	"context"
	"sync"

	"github.com/hejijunhao/kimo/internal/sink"
)

type Collector struct {
	mu      sync.Mutex
	blocks  []sink.Block
	loading []bool
}

func New() *Collector { return &Collector{} }

func (c *Collector) Display(_ context.Context, b sink.Block) error {
	c.mu.Lock()
	c.blocks = append(c.blocks, b)
	c.mu.Unlock()
	return nil
}

func (c *Collector) SetLoading(on bool) {
	c.mu.Lock()
	c.loading = append(c.loading, on)
	c.mu.Unlock()
}

func (c *Collector) Close() error { return nil }

// Blocks returns a copy of the displayed blocks in order.
func (c *Collector) Blocks() []sink.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sink.Block(nil), c.blocks...)
}

// Loading returns the sequence of loading transitions seen so far.
func (c *Collector) Loading() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.loading...)
}
