package search

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/hejijunhao/kimo/internal/model"
)

const (
	// DefaultEndpoint is the DuckDuckGo instant answer API.
	DefaultEndpoint = "https://api.duckduckgo.com/"
	// DefaultTimeout bounds every search call.
	DefaultTimeout = 5 * time.Second

	FallbackText = "Search unavailable. Showing local results..."
)

// Fallback returns the fixed result substituted for any failed search.
func Fallback() model.SearchResult {
	return model.SearchResult{AbstractText: FallbackText, RelatedTopics: []model.RelatedTopic{}}
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Gateway) { g.client.httpClient = hc }
}

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// Gateway queries an instant-answer endpoint. Search never fails: errors and
// timeouts are replaced by Fallback().
type Gateway struct {
	client *client
	md     *converter.Converter
	logger *slog.Logger
}

// New creates a Gateway for endpoint (DefaultEndpoint when empty).
func New(endpoint string, opts ...Option) *Gateway {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	g := &Gateway{
		client: newClient(endpoint),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// response is the upstream JSON shape. RelatedTopics mixes plain topics
// with named groups holding nested Topics.
type response struct {
	AbstractText  string       `json:"AbstractText"`
	AbstractURL   string       `json:"AbstractURL"`
	Heading       string       `json:"Heading"`
	RelatedTopics []topicEntry `json:"RelatedTopics"`
}

type topicEntry struct {
	Result   string       `json:"Result"`
	Text     string       `json:"Text"`
	FirstURL string       `json:"FirstURL"`
	Name     string       `json:"Name"`
	Topics   []topicEntry `json:"Topics"`
}

// Search runs query against the endpoint, racing it against timeout
// (DefaultTimeout when <= 0). On expiry the in-flight request is cancelled.
func (g *Gateway) Search(ctx context.Context, query string, timeout time.Duration) model.SearchResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp response
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "0")
	q.Set("skip_disambig", "1")
	if err := g.client.getJSON(ctx, q, &resp); err != nil {
		g.logger.Warn("search failed, using fallback", "query", query, "error", err)
		return Fallback()
	}

	out := model.SearchResult{
		AbstractText:  resp.AbstractText,
		AbstractURL:   resp.AbstractURL,
		Heading:       resp.Heading,
		RelatedTopics: []model.RelatedTopic{},
	}
	g.flatten(resp.RelatedTopics, &out.RelatedTopics)
	return out
}

func (g *Gateway) flatten(entries []topicEntry, dst *[]model.RelatedTopic) {
	for _, e := range entries {
		if len(e.Topics) > 0 {
			g.flatten(e.Topics, dst)
			continue
		}
		if e.Text == "" && e.Result == "" {
			continue
		}
		*dst = append(*dst, model.RelatedTopic{
			Text:     e.Text,
			FirstURL: e.FirstURL,
			Markdown: g.markdown(e.Result),
		})
	}
}

func (g *Gateway) markdown(html string) string {
	if html == "" {
		return ""
	}
	md, err := g.md.ConvertString(html)
	if err != nil {
		g.logger.Debug("related topic conversion failed", "error", err)
		return ""
	}
	return strings.TrimSpace(md)
}
