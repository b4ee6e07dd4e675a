package dispatch

import (
	"regexp"
	"strings"
)

var searchPrefixes = []string{
	"search", "find", "lookup", "look up", "define", "definition of",
	"what is", "what are", "who is", "who was", "where is", "when",
	"capital of", "meaning of", "how many", "how much",
}

// DefaultSearchPredicate reports whether text reads like a web query: it
// starts with a question or search keyword, or ends with a question mark.
func DefaultSearchPredicate(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if strings.HasSuffix(t, "?") {
		return true
	}
	for _, p := range searchPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}

var (
	// The dots match any three characters, not only a literal ellipsis.
	aiThinks       = regexp.MustCompile(`AI thinks...`)
	localProcessed = regexp.MustCompile(`\[Local Processing\]`)
)

// Humanize rewrites canned machine phrasing in a generated response.
func Humanize(text string) string {
	text = aiThinks.ReplaceAllLiteralString(text, "In my opinion,")
	return localProcessed.ReplaceAllLiteralString(text, "(Generated by AI, refined)")
}
