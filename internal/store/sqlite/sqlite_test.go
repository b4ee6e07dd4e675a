package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hejijunhao/kimo/internal/store"
)

func TestLargeValueRoundTrip(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "kimo.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	big := strings.Repeat("x", 1<<20)
	if err := s.Set(ctx, store.KeySessionHistory, big); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, store.KeySessionHistory)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != len(big) {
		t.Fatalf("len = %d, want %d", len(got), len(big))
	}
}

func TestReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kimo.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(ctx, store.KeyTheme, "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	v, err := s.Get(ctx, store.KeyTheme)
	if err != nil || v != "dark" {
		t.Fatalf("Get = %q, %v", v, err)
	}
}
