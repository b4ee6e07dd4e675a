package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
)

// client issues GET requests and decodes JSON responses. It never retries;
// every retry in Kimo is user initiated.
type client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func newClient(baseURL string) *client {
	return &client{
		baseURL:    baseURL,
		userAgent:  "kimo/1.0",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// getJSON sends a GET request to baseURL with query and unmarshals the body
// into dest. Returns *APIError for non-2xx responses.
func (c *client) getJSON(ctx context.Context, query url.Values, dest any) error {
	fullURL := c.baseURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		return &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	}
	return sonic.Unmarshal(body, dest)
}
