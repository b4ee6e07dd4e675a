package gemini

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"google.golang.org/genai"
)

const handwritingPrompt = `Transcribe the handwritten text in this image exactly as written.
Reply with the text only. If there is no legible handwriting, reply with an empty message.`

// Recognizer reads handwriting from bitmaps.
type Recognizer struct {
	client *Client
	gen    generator
}

// NewRecognizer creates a handwriting recognizer on c.
func NewRecognizer(c *Client) *Recognizer {
	return &Recognizer{client: c, gen: c}
}

// Load verifies the client can be created.
func (r *Recognizer) Load(ctx context.Context) error {
	return r.client.connect(ctx)
}

func (r *Recognizer) RecognizeHandwriting(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("handwriting: encode canvas: %w", err)
	}
	text, err := r.gen.generate(ctx, "", []*genai.Part{
		genai.NewPartFromBytes(buf.Bytes(), "image/png"),
		genai.NewPartFromText(handwritingPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("handwriting: %w", err)
	}
	return text, nil
}

func (r *Recognizer) Close() error { return nil }
