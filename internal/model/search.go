package model

// SearchResult is the subset of an instant-answer response Kimo consumes.
// Field names follow the upstream JSON so stored history stays readable.
type SearchResult struct {
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL,omitempty"`
	Heading       string         `json:"Heading,omitempty"`
	RelatedTopics []RelatedTopic `json:"RelatedTopics"`
}

// RelatedTopic is a single related link. Grouped topics are flattened by the
// search gateway before they reach this type.
type RelatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL,omitempty"`
	Markdown string `json:"Markdown,omitempty"`
}
