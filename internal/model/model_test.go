package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromUpload(t *testing.T) {
	tests := []struct {
		mediaType string
		want      InputKind
		ok        bool
	}{
		{"image/png", KindImage, true},
		{"image/jpeg", KindImage, true},
		{"text/plain", KindText, true},
		{"text/plain; charset=utf-8", 0, false},
		{"text/markdown", 0, false},
		{"application/pdf", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		in, ok := FromUpload("f", tt.mediaType, []byte("x"))
		if assert.Equal(t, tt.ok, ok, tt.mediaType) && ok {
			assert.Equal(t, tt.want, in.Kind(), tt.mediaType)
		}
	}
}

func TestNewEntryDerivesType(t *testing.T) {
	payloads := map[EntryType]Payload{
		EntryImage:       ImagePayload{File: "a.png"},
		EntryHandwriting: HandwritingPayload{File: "a.png"},
		EntryText:        TextPayload{File: "a.txt"},
		EntryDrawing:     DrawingPayload{},
		EntrySearch:      SearchPayload{},
		EntryAI:          AIPayload{},
	}
	for want, p := range payloads {
		e := NewEntry(p)
		assert.Equal(t, want, e.Type)
		assert.True(t, e.Type.Valid())
	}
	assert.False(t, EntryType("video").Valid())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "cat.png: tabby", NewEntry(ImagePayload{File: "cat.png", Results: []Prediction{{Label: "tabby"}}}).Summary())
	assert.Equal(t, "essay.txt: 87.3%", NewEntry(TextPayload{File: "essay.txt", Score: 87.34}).Summary())
	assert.Equal(t, "capital of France", NewEntry(SearchPayload{Query: "capital of France"}).Summary())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "voice", KindVoice.String())
	assert.Equal(t, "unknown", InputKind(99).String())
}
