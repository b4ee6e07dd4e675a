package gemini

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply  string
	err    error
	system string
	parts  []*genai.Part
}

func (f *fakeGenerator) generate(_ context.Context, system string, parts []*genai.Part) (string, error) {
	f.system, f.parts = system, parts
	return f.reply, f.err
}

func TestLoadWithoutAPIKeyFails(t *testing.T) {
	r := NewRecognizer(NewClient("", ""))
	err := r.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, DefaultModel, NewClient("k", "").Model())
	assert.Equal(t, "gemini-x", NewClient("k", "gemini-x").Model())
}

func TestRecognizerSendsPNG(t *testing.T) {
	gen := &fakeGenerator{reply: "hello"}
	r := &Recognizer{client: NewClient("k", ""), gen: gen}

	text, err := r.RecognizeHandwriting(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	require.Len(t, gen.parts, 2)
	require.NotNil(t, gen.parts[0].InlineData)
	assert.Equal(t, "image/png", gen.parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("\x89PNG"), gen.parts[0].InlineData.Data[:4])
}

func TestResponderUsesSystemInstruction(t *testing.T) {
	gen := &fakeGenerator{reply: "yes"}
	r := &Responder{gen: gen}

	got, err := r.Respond(context.Background(), "is it?")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
	assert.Equal(t, responderSystem, gen.system)
	assert.Equal(t, "is it?", gen.parts[0].Text)
}

func TestResponderWrapsErrors(t *testing.T) {
	boom := errors.New("quota")
	r := &Responder{gen: &fakeGenerator{err: boom}}
	_, err := r.Respond(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}

func TestTranscriberRejectsEmptyAudio(t *testing.T) {
	tr := &Transcriber{gen: &fakeGenerator{reply: "x"}}
	_, err := tr.Transcribe(context.Background(), nil, "audio/wav")
	assert.Error(t, err)

	got, err := tr.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}
