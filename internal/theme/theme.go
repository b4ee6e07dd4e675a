package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hejijunhao/kimo/internal/store"
)

// Theme is the display preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse returns the theme named by s. Anything other than "dark" is light.
func Parse(s string) Theme {
	if Theme(s) == Dark {
		return Dark
	}
	return Light
}

// Other returns the opposite theme.
func (t Theme) Other() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Preference holds the current theme and persists changes.
type Preference struct {
	store store.Store

	mu      sync.Mutex
	current Theme
}

// Load reads the stored theme, defaulting to light.
func Load(ctx context.Context, s store.Store) (*Preference, error) {
	p := &Preference{store: s, current: Light}
	v, err := s.Get(ctx, store.KeyTheme)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("theme: load: %w", err)
	default:
		p.current = Parse(v)
	}
	return p, nil
}

// Current returns the displayed theme.
func (p *Preference) Current() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Toggle flips the theme and persists the new value.
func (p *Preference) Toggle(ctx context.Context) (Theme, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.current.Other()
	if err := p.store.Set(ctx, store.KeyTheme, string(next)); err != nil {
		return p.current, fmt.Errorf("theme: persist: %w", err)
	}
	p.current = next
	return next, nil
}
