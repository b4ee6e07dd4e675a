package kimo

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/kimo/internal/config"
	"github.com/hejijunhao/kimo/internal/gateway"
	"github.com/hejijunhao/kimo/internal/model"
	"github.com/hejijunhao/kimo/internal/sink/collect"
	"github.com/hejijunhao/kimo/internal/store/memory"
)

type stubModels struct{}

func (stubModels) ClassifyImage(context.Context, image.Image) ([]model.Prediction, error) {
	return []model.Prediction{{Label: "cat", Confidence: 0.9}}, nil
}

func (stubModels) CheckPlagiarism(context.Context, string) (float64, error) { return 12.5, nil }

func (stubModels) RecognizeHandwriting(context.Context, image.Image) (string, error) {
	return "hi", nil
}

func testConfig(t *testing.T, searchURL string) config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Store = config.StoreConfig{Driver: "memory"}
	cfg.Models.ImageModelPath = filepath.Join(dir, "missing.onnx")
	cfg.Models.LabelsPath = filepath.Join(dir, "missing.txt")
	cfg.Models.EncoderModelPath = filepath.Join(dir, "missing-encoder.onnx")
	cfg.Models.VocabPath = filepath.Join(dir, "missing-vocab.txt")
	cfg.Refresh.Interval = 0
	cfg.GenAI.APIKey = ""
	if searchURL != "" {
		cfg.Search.Endpoint = searchURL
	}
	return cfg
}

func ddgServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"AbstractText":"Paris is the capital and largest city of France.","RelatedTopics":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewWithoutModelsIsDegraded(t *testing.T) {
	a, err := New(context.Background(), WithConfig(testConfig(t, "")))
	require.NoError(t, err)
	defer a.Close()

	require.Error(t, a.Degraded())
	assert.True(t, errors.Is(a.Degraded(), gateway.ErrModelLoad))
	for name, st := range a.Capabilities() {
		assert.Equal(t, "failed", st, name)
	}

	res := a.Dispatch(context.Background(), TextUpload{Name: "a.txt", Data: []byte("text")})
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, "Error processing file", res.Blocks[0].Text)
	assert.Empty(t, a.History())
}

func TestSearchIsRecordedAndPersisted(t *testing.T) {
	st := memory.New()
	cfg := testConfig(t, ddgServer(t).URL)
	out := collect.New()

	a, err := New(context.Background(), WithConfig(cfg), WithStore(st), WithSink(out), WithModels(stubModels{}))
	require.NoError(t, err)
	assert.NoError(t, a.Degraded())

	res := a.Dispatch(context.Background(), Submit{Text: "capital of France"})
	assert.Equal(t, "Paris is the capital and largest city of France.", res.Blocks[0].Text)
	assert.Equal(t, []bool{true, false}, out.Loading())

	// A second assistant on the same store sees the entry.
	b, err := New(context.Background(), WithConfig(cfg), WithStore(st), WithModels(stubModels{}))
	require.NoError(t, err)
	require.Len(t, b.History(), 1)
	assert.Equal(t, model.EntrySearch, b.History()[0].Type)
}

func TestAIWithoutAPIKeyFailsGracefully(t *testing.T) {
	a, err := New(context.Background(), WithConfig(testConfig(t, "")), WithModels(stubModels{}))
	require.NoError(t, err)
	defer a.Close()

	res := a.Dispatch(context.Background(), Submit{Text: "tell me a story"})
	assert.Equal(t, "An error occurred. Please try again.", res.Blocks[0].Text)
	assert.Empty(t, a.History())
}

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, q string) (string, error) {
	return "AI thinks... " + q, nil
}

func TestOverridesReachDispatcher(t *testing.T) {
	a, err := New(context.Background(),
		WithConfig(testConfig(t, "")),
		WithModels(stubModels{}),
		WithResponder(echoResponder{}),
		WithSearchPredicate(func(string) bool { return false }),
	)
	require.NoError(t, err)
	defer a.Close()

	res := a.Dispatch(context.Background(), Submit{Text: "capital of France"})
	assert.Equal(t, "In my opinion, capital of France", res.Blocks[0].Text)
}

func TestThemeToggleRoundTrip(t *testing.T) {
	a, err := New(context.Background(), WithConfig(testConfig(t, "")), WithModels(stubModels{}))
	require.NoError(t, err)
	defer a.Close()

	start := a.Theme()
	_, err = a.ToggleTheme(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, start, a.Theme())
	_, err = a.ToggleTheme(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start, a.Theme())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Models.TopK = 0
	_, err := New(context.Background(), WithConfig(cfg))
	assert.Error(t, err)
}

func TestFromUpload(t *testing.T) {
	in, ok := FromUpload("a.png", "image/png", nil)
	require.True(t, ok)
	assert.IsType(t, ImageUpload{}, in)

	_, ok = FromUpload("a.pdf", "application/pdf", nil)
	assert.False(t, ok)
}
