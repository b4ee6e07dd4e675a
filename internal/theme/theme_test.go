package theme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/kimo/internal/store"
	"github.com/hejijunhao/kimo/internal/store/memory"
)

func TestDefaultIsLight(t *testing.T) {
	p, err := Load(context.Background(), memory.New())
	require.NoError(t, err)
	assert.Equal(t, Light, p.Current())
}

func TestUnknownStoredValueReadsAsLight(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Set(context.Background(), store.KeyTheme, "solarized"))
	p, err := Load(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, Light, p.Current())
}

func TestToggleTwiceRestoresOriginal(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	p, err := Load(ctx, s)
	require.NoError(t, err)

	got, err := p.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, Dark, got)

	got, err = p.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, Light, got)
}

func TestPersistedMatchesDisplayedAfterReload(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	p, err := Load(ctx, s)
	require.NoError(t, err)
	_, err = p.Toggle(ctx)
	require.NoError(t, err)

	reloaded, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, p.Current(), reloaded.Current())

	v, err := s.Get(ctx, store.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, string(p.Current()), v)
}
