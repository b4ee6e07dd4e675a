package encoder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// chunkWords is the window size used to compare texts piecewise.
const chunkWords = 64

type textEncoder interface {
	Load(ctx context.Context) error
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// swappable is implemented by encoders whose model can change after Load.
type swappable interface {
	Revalidate(ctx context.Context) error
	Generation() uint64
}

// Checker scores text by its closest semantic match against a reference
// corpus of .txt files. The corpus is re-embedded whenever the encoder
// swaps models.
type Checker struct {
	enc       textEncoder
	corpusDir string

	mu      sync.RWMutex
	refs    [][]float32
	sources []string
	gen     uint64
}

// NewChecker creates a Checker that embeds the .txt files in corpusDir at
// load time. An empty corpusDir means every text scores 0.
func NewChecker(enc textEncoder, corpusDir string) *Checker {
	return &Checker{enc: enc, corpusDir: corpusDir}
}

// Load loads the encoder and pre-embeds the reference corpus.
func (c *Checker) Load(ctx context.Context) error {
	if err := c.enc.Load(ctx); err != nil {
		return err
	}
	return c.embedCorpus(ctx)
}

// Revalidate lets the encoder pick up a new model and re-embeds the corpus
// if it did. On failure the previous corpus vectors stay in place.
func (c *Checker) Revalidate(ctx context.Context) error {
	sw, ok := c.enc.(swappable)
	if !ok {
		return nil
	}
	if err := sw.Revalidate(ctx); err != nil {
		return fmt.Errorf("plagiarism: %w", err)
	}
	if !c.stale() {
		return nil
	}
	return c.embedCorpus(ctx)
}

func (c *Checker) generation() uint64 {
	if sw, ok := c.enc.(swappable); ok {
		return sw.Generation()
	}
	return 0
}

func (c *Checker) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen != c.generation()
}

func (c *Checker) embedCorpus(ctx context.Context) error {
	gen := c.generation()
	chunks, sources, err := readCorpus(c.corpusDir)
	if err != nil {
		return fmt.Errorf("plagiarism: %w", err)
	}
	var vecs [][]float32
	if len(chunks) == 0 {
		slog.Warn("plagiarism corpus is empty, all scores will be 0", "dir", c.corpusDir)
	} else if vecs, err = c.enc.Encode(ctx, chunks); err != nil {
		return fmt.Errorf("plagiarism: embed corpus: %w", err)
	}
	c.mu.Lock()
	c.refs, c.sources, c.gen = vecs, sources, gen
	c.mu.Unlock()
	slog.Debug("plagiarism corpus embedded", "chunks", len(chunks), "generation", gen)
	return nil
}

// CheckPlagiarism returns the highest similarity between any chunk of text
// and any reference chunk, as a percentage in [0,100].
func (c *Checker) CheckPlagiarism(ctx context.Context, text string) (float64, error) {
	chunks := chunk(text, chunkWords)
	if len(chunks) == 0 {
		return 0, nil
	}
	if c.stale() {
		if err := c.embedCorpus(ctx); err != nil {
			return 0, err
		}
	}
	c.mu.RLock()
	refs, sources := c.refs, c.sources
	c.mu.RUnlock()
	if len(refs) == 0 {
		return 0, nil
	}
	vecs, err := c.enc.Encode(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("plagiarism: %w", err)
	}
	pct, ref := score(vecs, refs)
	slog.Debug("plagiarism scored", "score", pct, "closest", sources[ref])
	return pct, nil
}

// Close is a no-op; the shared encoder is closed by its owner.
func (c *Checker) Close() error { return nil }

// score returns the best match as a percentage and the index of the
// reference chunk it matched. Negative similarity counts as 0.
func score(vecs, refs [][]float32) (float64, int) {
	best, at := 0.0, 0
	for _, v := range vecs {
		for i, r := range refs {
			if sim := cosine(v, r); sim > best {
				best, at = sim, i
			}
		}
	}
	return min(best, 1) * 100, at
}

// chunk splits text into windows of at most n words.
func chunk(text string, n int) []string {
	words := strings.Fields(text)
	var out []string
	for start := 0; start < len(words); start += n {
		end := min(start+n, len(words))
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}

func readCorpus(dir string) (chunks, sources []string, err error) {
	if dir == "" {
		return nil, nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(paths)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, err
		}
		for _, ch := range chunk(string(data), chunkWords) {
			chunks = append(chunks, ch)
			sources = append(sources, filepath.Base(p))
		}
	}
	return chunks, sources, nil
}
