package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const transcribePrompt = `Transcribe this speech recording in English. Reply with the transcript only.`

// Transcriber turns recorded speech into text.
type Transcriber struct {
	gen generator
}

// NewTranscriber creates a Transcriber on c.
func NewTranscriber(c *Client) *Transcriber {
	return &Transcriber{gen: c}
}

// Transcribe returns the transcript of audio encoded as mediaType.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mediaType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("transcriber: empty recording")
	}
	text, err := t.gen.generate(ctx, "", []*genai.Part{
		genai.NewPartFromBytes(audio, mediaType),
		genai.NewPartFromText(transcribePrompt),
	})
	if err != nil {
		return "", fmt.Errorf("transcriber: %w", err)
	}
	return text, nil
}
