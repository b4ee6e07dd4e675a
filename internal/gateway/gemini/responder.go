package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const responderSystem = `You are Kimo, a concise and friendly assistant. Answer in plain prose or short markdown.`

// Responder answers free-text queries.
type Responder struct {
	gen generator
}

// NewResponder creates a Responder on c.
func NewResponder(c *Client) *Responder {
	return &Responder{gen: c}
}

// Respond generates an answer to query.
func (r *Responder) Respond(ctx context.Context, query string) (string, error) {
	text, err := r.gen.generate(ctx, responderSystem, []*genai.Part{genai.NewPartFromText(query)})
	if err != nil {
		return "", fmt.Errorf("responder: %w", err)
	}
	return text, nil
}
