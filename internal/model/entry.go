package model

import (
	"fmt"
	"time"
)

// EntryType tags a SessionEntry and fixes the shape of its payload.
type EntryType string

const (
	EntryImage       EntryType = "image"
	EntryHandwriting EntryType = "handwriting"
	EntryText        EntryType = "text"
	EntryDrawing     EntryType = "drawing"
	EntrySearch      EntryType = "search"
	EntryAI          EntryType = "ai"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case EntryImage, EntryHandwriting, EntryText, EntryDrawing, EntrySearch, EntryAI:
		return true
	}
	return false
}

// Payload is the type-specific body of a SessionEntry. Each payload struct
// reports its own type, so an entry's tag is always derived from its body.
type Payload interface {
	EntryType() EntryType
}

// SessionEntry is one normalized record of a completed interaction.
// Entries are immutable once appended to the history log.
type SessionEntry struct {
	ID        string    `json:"id"`
	Type      EntryType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

// NewEntry builds an entry whose Type matches the payload. ID and Timestamp
// are assigned by the history log at append time.
func NewEntry(p Payload) SessionEntry {
	return SessionEntry{Type: p.EntryType(), Payload: p}
}

// Prediction is one (label, confidence) pair from the image classifier.
// Confidence is in [0,1].
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ImagePayload records an image classification.
type ImagePayload struct {
	File    string       `json:"file"`
	Results []Prediction `json:"results"`
}

func (ImagePayload) EntryType() EntryType { return EntryImage }

// HandwritingPayload records handwriting recognized from an uploaded image.
type HandwritingPayload struct {
	File string `json:"file"`
	Text string `json:"text"`
}

func (HandwritingPayload) EntryType() EntryType { return EntryHandwriting }

// TextPayload records a plagiarism check of an uploaded text file.
type TextPayload struct {
	File    string  `json:"file"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func (TextPayload) EntryType() EntryType { return EntryText }

// DrawingPayload records handwriting recognized from the drawing canvas.
type DrawingPayload struct {
	Text string `json:"text"`
}

func (DrawingPayload) EntryType() EntryType { return EntryDrawing }

// SearchPayload records a web search and the result set shown to the user.
type SearchPayload struct {
	Query   string       `json:"query"`
	Results SearchResult `json:"results"`
}

func (SearchPayload) EntryType() EntryType { return EntrySearch }

// AIPayload records a free-text query answered by the response generator.
type AIPayload struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

func (AIPayload) EntryType() EntryType { return EntryAI }

// Summary returns a one-line description of the entry for listings.
func (e SessionEntry) Summary() string {
	switch p := e.Payload.(type) {
	case ImagePayload:
		if len(p.Results) > 0 {
			return p.File + ": " + p.Results[0].Label
		}
		return p.File
	case HandwritingPayload:
		return p.File + ": " + p.Text
	case TextPayload:
		return fmt.Sprintf("%s: %.1f%%", p.File, p.Score)
	case DrawingPayload:
		return p.Text
	case SearchPayload:
		return p.Query
	case AIPayload:
		return p.Query
	default:
		return ""
	}
}
