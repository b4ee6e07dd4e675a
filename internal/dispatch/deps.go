package dispatch

import (
	"context"
	"image"
	"time"

	"github.com/hejijunhao/kimo/internal/model"
)

// Models is the subset of the model gateway the dispatcher calls.
type Models interface {
	ClassifyImage(ctx context.Context, img image.Image) ([]model.Prediction, error)
	CheckPlagiarism(ctx context.Context, text string) (float64, error)
	RecognizeHandwriting(ctx context.Context, img image.Image) (string, error)
}

// Searcher runs a time-bounded web query. It never fails; on error it
// returns a fallback result.
type Searcher interface {
	Search(ctx context.Context, query string, timeout time.Duration) model.SearchResult
}

// Responder produces a free-text answer.
type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mediaType string) (string, error)
}

// Recorder appends entries to the session log. A returned entry with a
// non-empty ID was recorded in memory even if err is set.
type Recorder interface {
	Append(ctx context.Context, p model.Payload) (model.SessionEntry, error)
}
