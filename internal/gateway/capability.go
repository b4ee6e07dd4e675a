package gateway

import (
	"context"
	"image"

	"github.com/hejijunhao/kimo/internal/model"
)

// Capability names.
const (
	CapImage       = "image"
	CapPlagiarism  = "plagiarism"
	CapHandwriting = "handwriting"
	CapEncoder     = "encoder"
)

// Loader is the init contract shared by every capability. Load is called
// at most once by the gateway.
type Loader interface {
	Load(ctx context.Context) error
	Close() error
}

// Revalidator is implemented by capabilities whose assets can change on
// disk after startup.
type Revalidator interface {
	Revalidate(ctx context.Context) error
}

// ImageClassifier labels an image. Results are sorted by descending
// confidence, each confidence in [0,1].
type ImageClassifier interface {
	Loader
	ClassifyImage(ctx context.Context, img image.Image) ([]model.Prediction, error)
}

// PlagiarismChecker scores text against known sources; the score is in [0,100].
type PlagiarismChecker interface {
	Loader
	CheckPlagiarism(ctx context.Context, text string) (float64, error)
}

// HandwritingRecognizer reads handwritten text from a bitmap.
type HandwritingRecognizer interface {
	Loader
	RecognizeHandwriting(ctx context.Context, img image.Image) (string, error)
}

// TextEncoder embeds texts into fixed-size vectors.
type TextEncoder interface {
	Loader
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// State is the availability of one capability.
type State int

const (
	NotReady State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "not_ready"
	}
}
