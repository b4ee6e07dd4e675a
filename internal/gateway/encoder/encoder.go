package encoder

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hejijunhao/kimo/internal/gateway/ortenv"
)

// maxBatch bounds how many texts go through a single inference call.
const maxBatch = 32

// Encoder produces sentence embeddings with a local ONNX model. Load is
// idempotent so the plagiarism checker can share one Encoder with the
// gateway.
type Encoder struct {
	modelPath string
	vocabPath string
	libPath   string

	once    sync.Once
	loadErr error

	mu      sync.RWMutex
	sess    *session
	tok     *wordPiece
	modTime time.Time
	gen     uint64
}

// New creates an Encoder. libPath may be empty to use the library next to
// the model.
func New(modelPath, vocabPath, libPath string) *Encoder {
	return &Encoder{modelPath: modelPath, vocabPath: vocabPath, libPath: libPath}
}

// Load opens the vocabulary and the model. Only the first call does work.
func (e *Encoder) Load(_ context.Context) error {
	e.once.Do(func() {
		sess, tok, err := e.open()
		if err != nil {
			e.loadErr = err
			return
		}
		e.mu.Lock()
		e.sess, e.tok = sess, tok
		e.modTime = ortenv.ModTime(e.modelPath)
		e.mu.Unlock()
	})
	return e.loadErr
}

func (e *Encoder) open() (*session, *wordPiece, error) {
	v, err := loadVocab(e.vocabPath)
	if err != nil {
		return nil, nil, fmt.Errorf("encoder: %w", err)
	}
	if _, err := os.Stat(e.modelPath); err != nil {
		return nil, nil, fmt.Errorf("encoder: %w", err)
	}
	if err := ortenv.Init(ortenv.LibraryPath(e.libPath, e.modelPath)); err != nil {
		return nil, nil, fmt.Errorf("encoder: %w", err)
	}
	sess, err := newSession(e.modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("encoder: %w", err)
	}
	return sess, newWordPiece(v), nil
}

// Encode embeds texts into unit-length vectors.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.sess == nil {
		return nil, fmt.Errorf("encoder: not loaded")
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+maxBatch, len(texts))
		b := e.tok.encodeBatch(texts[start:end])
		hidden, err := e.sess.hidden(b)
		if err != nil {
			return nil, fmt.Errorf("encoder: %w", err)
		}
		out = append(out, meanPool(hidden, b.mask, b.size, b.seqLen, e.sess.embedDim)...)
	}
	return out, nil
}

// Revalidate swaps in a newer model file if one appeared on disk.
func (e *Encoder) Revalidate(_ context.Context) error {
	e.mu.RLock()
	current := e.modTime
	e.mu.RUnlock()
	if !ortenv.ModTime(e.modelPath).After(current) {
		return nil
	}
	sess, tok, err := e.open()
	if err != nil {
		return err
	}
	e.mu.Lock()
	old := e.sess
	e.sess, e.tok = sess, tok
	e.modTime = ortenv.ModTime(e.modelPath)
	e.gen++
	e.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// Generation counts model swaps made by Revalidate. Vectors from different
// generations are not comparable.
func (e *Encoder) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gen
}

// Close releases the ONNX session.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	err := e.sess.close()
	e.sess = nil
	return err
}
