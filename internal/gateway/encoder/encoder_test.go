package encoder

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVocab = "[PAD]\n[UNK]\n[CLS]\n[SEP]\nhello\nworld\nplay\n##ing\ncafe\n!\n"

func newTestTokenizer(t *testing.T) *wordPiece {
	t.Helper()
	v, err := readVocab(strings.NewReader(testVocab))
	require.NoError(t, err)
	return newWordPiece(v)
}

func TestReadVocabRequiresSpecials(t *testing.T) {
	_, err := readVocab(strings.NewReader("hello\nworld\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing special token")

	_, err = readVocab(strings.NewReader(""))
	require.Error(t, err)
}

func TestEncodeWordPiece(t *testing.T) {
	tok := newTestTokenizer(t)
	// [CLS] hello world play ##ing ! [SEP]
	assert.Equal(t, []int64{2, 4, 5, 6, 7, 9, 3}, tok.encode("Hello WORLD playing!"))
}

func TestEncodeStripsAccentsAndUnknowns(t *testing.T) {
	tok := newTestTokenizer(t)
	assert.Equal(t, []int64{2, 8, 1, 3}, tok.encode("Café zzz"))
}

func TestEncodeTruncates(t *testing.T) {
	tok := newTestTokenizer(t)
	ids := tok.encode(strings.Repeat("hello ", 500))
	require.Len(t, ids, maxSeqLen)
	assert.Equal(t, int64(2), ids[0])
	assert.Equal(t, int64(3), ids[maxSeqLen-1])
}

func TestEncodeBatchPads(t *testing.T) {
	tok := newTestTokenizer(t)
	b := tok.encodeBatch([]string{"hello", "hello world playing"})
	assert.EqualValues(t, 2, b.size)
	assert.EqualValues(t, 6, b.seqLen)
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 0}, b.mask[:6])
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 1}, b.mask[6:])
	assert.Equal(t, []int64{2, 4, 3, 0, 0, 0}, b.ids[:6])
}

func TestMeanPoolIgnoresPaddingAndNormalizes(t *testing.T) {
	// One sequence of 3 tokens, dim 2; the last token is padding.
	hidden := []float32{3, 0, 1, 0, 100, 100}
	mask := []int64{1, 1, 0}
	vecs := meanPool(hidden, mask, 1, 3, 2)
	require.Len(t, vecs, 1)
	assert.InDelta(t, 1.0, vecs[0][0], 1e-6)
	assert.InDelta(t, 0.0, vecs[0][1], 1e-6)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk("   ", 3))
	assert.Equal(t, []string{"a b c", "d e"}, chunk("a b\nc  d e", 3))
}

// fakeEncoder maps each text to a vector keyed on its first word.
type fakeEncoder struct {
	loadErr error
	vectors map[string][]float32
}

func (f *fakeEncoder) Load(context.Context) error { return f.loadErr }

func (f *fakeEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[strings.Fields(t)[0]]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestCheckPlagiarismScoreRange(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float32{
		"original": {1, 0, 0},
		"copied":   {1, 0, 0},
		"partial":  {1, 1, 0},
		"opposite": {-1, 0, 0},
	}}
	dir := writeCorpus(t, map[string]string{"source.txt": "original text from a known source"})
	c := NewChecker(enc, dir)
	require.NoError(t, c.Load(context.Background()))

	tests := []struct {
		text string
		want float64
	}{
		{"copied text", 100},
		{"partial overlap", 100 / math.Sqrt2},
		{"opposite meaning", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := c.CheckPlagiarism(context.Background(), tt.text)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-4, tt.text)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

func TestCheckPlagiarismWithoutCorpusScoresZero(t *testing.T) {
	c := NewChecker(&fakeEncoder{}, "")
	require.NoError(t, c.Load(context.Background()))
	got, err := c.CheckPlagiarism(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestCheckerLoadPropagatesEncoderFailure(t *testing.T) {
	c := NewChecker(&fakeEncoder{loadErr: errors.New("no model")}, "")
	assert.Error(t, c.Load(context.Background()))
}

// swappingEncoder rotates every vector onto a new axis each time its model
// is swapped, so vectors from different generations are orthogonal.
type swappingEncoder struct {
	dim int
	gen uint64
}

func (f *swappingEncoder) Load(context.Context) error { return nil }

func (f *swappingEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[int(f.gen)%f.dim] = 1
		out[i] = v
	}
	return out, nil
}

func (f *swappingEncoder) Revalidate(context.Context) error {
	f.gen++
	return nil
}

func (f *swappingEncoder) Generation() uint64 { return f.gen }

func TestCheckerRevalidateReembedsCorpus(t *testing.T) {
	enc := &swappingEncoder{dim: 2}
	dir := writeCorpus(t, map[string]string{"source.txt": "the quick brown fox"})
	c := NewChecker(enc, dir)
	require.NoError(t, c.Load(context.Background()))

	got, err := c.CheckPlagiarism(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, 1e-4)

	require.NoError(t, c.Revalidate(context.Background()))
	assert.EqualValues(t, 1, enc.Generation())

	got, err = c.CheckPlagiarism(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, 1e-4)
}

func TestCheckerNoticesSwapMadeElsewhere(t *testing.T) {
	enc := &swappingEncoder{dim: 3}
	dir := writeCorpus(t, map[string]string{"source.txt": "the quick brown fox"})
	c := NewChecker(enc, dir)
	require.NoError(t, c.Load(context.Background()))

	// The shared encoder is revalidated by the gateway on its own.
	require.NoError(t, enc.Revalidate(context.Background()))

	got, err := c.CheckPlagiarism(context.Background(), "the quick brown fox")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, 1e-4)
}

func TestEncoderMissingFilesFails(t *testing.T) {
	e := New("/nonexistent/model.onnx", "/nonexistent/vocab.txt", "")
	require.Error(t, e.Load(context.Background()))
	// Load is sticky.
	require.Error(t, e.Load(context.Background()))
	_, err := e.Encode(context.Background(), []string{"hello"})
	assert.Error(t, err)
}
