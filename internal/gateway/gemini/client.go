// Package gemini implements the capabilities backed by the Gemini API:
// handwriting recognition, free-text responses and speech transcription.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey is returned by Load when no API key is configured.
var ErrNoAPIKey = errors.New("gemini: API key is required")

// generator is the single call every capability needs.
type generator interface {
	generate(ctx context.Context, system string, parts []*genai.Part) (string, error)
}

// Client lazily creates one genai client shared by all capabilities.
type Client struct {
	apiKey string
	model  string

	once   sync.Once
	client *genai.Client
	err    error
}

// NewClient creates a Client for model (DefaultModel when empty).
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{apiKey: apiKey, model: model}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

func (c *Client) connect(ctx context.Context) error {
	c.once.Do(func() {
		if c.apiKey == "" {
			c.err = ErrNoAPIKey
			return
		}
		c.client, c.err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if c.err != nil {
			c.err = fmt.Errorf("gemini: failed to create client: %w", c.err)
		}
	})
	return c.err
}

func (c *Client) generate(ctx context.Context, system string, parts []*genai.Part) (string, error) {
	if err := c.connect(ctx); err != nil {
		return "", err
	}
	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
