package store

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeySessionHistory = "sessionHistory"
	KeyTheme          = "theme"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error

	Close() error
}
