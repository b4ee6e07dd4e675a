package gateway

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/kimo/internal/model"
)

type stubLoader struct {
	loadErr  error
	loads    atomic.Int32
	closes   atomic.Int32
	revalids atomic.Int32
}

func (s *stubLoader) Load(context.Context) error { s.loads.Add(1); return s.loadErr }
func (s *stubLoader) Close() error               { s.closes.Add(1); return nil }
func (s *stubLoader) Revalidate(context.Context) error {
	s.revalids.Add(1)
	return nil
}

type stubImages struct{ stubLoader }

func (s *stubImages) ClassifyImage(context.Context, image.Image) ([]model.Prediction, error) {
	return []model.Prediction{{Label: "tabby", Confidence: 0.9}}, nil
}

type stubPlagiarism struct{ stubLoader }

func (s *stubPlagiarism) CheckPlagiarism(context.Context, string) (float64, error) { return 12.5, nil }

type stubHandwriting struct{ stubLoader }

func (s *stubHandwriting) RecognizeHandwriting(context.Context, image.Image) (string, error) {
	return "hello", nil
}

func newStubGateway(imgErr error, opts ...Option) (*Gateway, *stubImages, *stubPlagiarism, *stubHandwriting) {
	img := &stubImages{stubLoader{loadErr: imgErr}}
	pl := &stubPlagiarism{}
	hw := &stubHandwriting{}
	opts = append([]Option{
		WithImageClassifier(img),
		WithPlagiarismChecker(pl),
		WithHandwritingRecognizer(hw),
	}, opts...)
	return New(opts...), img, pl, hw
}

func TestCallBeforeInitIsNotReady(t *testing.T) {
	g, _, _, _ := newStubGateway(nil)
	ctx := context.Background()

	_, err := g.ClassifyImage(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = g.CheckPlagiarism(ctx, "text")
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = g.RecognizeHandwriting(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestInitLoadsEachCapabilityOnce(t *testing.T) {
	g, img, pl, hw := newStubGateway(nil)
	ctx := context.Background()

	require.NoError(t, g.Init(ctx))
	require.NoError(t, g.Init(ctx))

	assert.EqualValues(t, 1, img.loads.Load())
	assert.EqualValues(t, 1, pl.loads.Load())
	assert.EqualValues(t, 1, hw.loads.Load())

	score, err := g.CheckPlagiarism(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, 12.5, score)
	assert.Equal(t, Ready, g.State(CapHandwriting))
}

func TestSingleFailureDegradesWholeGateway(t *testing.T) {
	g, _, pl, _ := newStubGateway(errors.New("mobilenet missing"))
	ctx := context.Background()

	err := g.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelLoad)
	var mle *ModelLoadError
	require.ErrorAs(t, err, &mle)
	assert.Equal(t, CapImage, mle.Capability)

	_, err = g.CheckPlagiarism(ctx, "text")
	assert.ErrorIs(t, err, ErrNotReady)
	for name, st := range g.States() {
		assert.Equal(t, Failed, st, name)
	}
	// Capabilities that did load are released.
	assert.EqualValues(t, 1, pl.closes.Load())
}

func TestBestEffortKeepsHealthyCapabilities(t *testing.T) {
	g, _, _, _ := newStubGateway(errors.New("mobilenet missing"), WithBestEffort())
	ctx := context.Background()

	err := g.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelLoad)

	_, err = g.ClassifyImage(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrNotReady)

	text, err := g.RecognizeHandwriting(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, Failed, g.State(CapImage))
	assert.Equal(t, Ready, g.State(CapPlagiarism))
}

func TestMissingCapabilityStaysNotReady(t *testing.T) {
	g := New(WithPlagiarismChecker(&stubPlagiarism{}))
	require.NoError(t, g.Init(context.Background()))
	assert.Equal(t, NotReady, g.State(CapImage))
	_, err := g.Encode(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRevalidateAndCloseOnlyTouchReady(t *testing.T) {
	g, img, pl, hw := newStubGateway(errors.New("broken"), WithBestEffort())
	ctx := context.Background()
	_ = g.Init(ctx)

	require.NoError(t, g.Revalidate(ctx))
	assert.EqualValues(t, 0, img.revalids.Load())
	assert.EqualValues(t, 1, pl.revalids.Load())
	assert.EqualValues(t, 1, hw.revalids.Load())

	require.NoError(t, g.Close())
	assert.EqualValues(t, 0, img.closes.Load())
	assert.EqualValues(t, 1, pl.closes.Load())
}
