package encoder

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSeqLen     = 128
	maxWordRunes  = 100
	subwordPrefix = "##"
)

// batch is a padded, flattened tokenizer output ready for inference.
// Every slice has length size*seqLen.
type batch struct {
	ids, mask, types []int64
	size, seqLen     int64
}

// wordPiece is an uncased BERT WordPiece tokenizer.
type wordPiece struct {
	vocab *vocab
}

func newWordPiece(v *vocab) *wordPiece {
	return &wordPiece{vocab: v}
}

// stripAccents drops combining marks after canonical decomposition.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// encode returns [CLS] tokens... [SEP] as IDs, truncated to maxSeqLen.
func (w *wordPiece) encode(text string) []int64 {
	ids := []int64{w.vocab.cls}
	for _, word := range w.words(text) {
		for _, piece := range w.pieces(word) {
			if len(ids) == maxSeqLen-1 {
				return append(ids, w.vocab.sep)
			}
			ids = append(ids, w.vocab.id(piece))
		}
	}
	return append(ids, w.vocab.sep)
}

// encodeBatch pads every sequence to the longest one in the batch.
func (w *wordPiece) encodeBatch(texts []string) batch {
	seqs := make([][]int64, len(texts))
	longest := 0
	for i, t := range texts {
		seqs[i] = w.encode(t)
		longest = max(longest, len(seqs[i]))
	}

	b := batch{size: int64(len(texts)), seqLen: int64(longest)}
	total := len(texts) * longest
	b.ids = make([]int64, total)
	b.mask = make([]int64, total)
	b.types = make([]int64, total)
	for i, seq := range seqs {
		row := i * longest
		for j, id := range seq {
			b.ids[row+j] = id
			b.mask[row+j] = 1
		}
		for j := len(seq); j < longest; j++ {
			b.ids[row+j] = w.vocab.pad
		}
	}
	return b
}

// words lowercases, strips accents and splits on whitespace and punctuation.
// CJK ideographs become single-rune words.
func (w *wordPiece) words(text string) []string {
	text = stripAccents(strings.ToLower(text))

	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar || (unicode.IsControl(r) && !unicode.IsSpace(r)):
		case unicode.IsSpace(r):
			flush()
		case isPunct(r) || isCJK(r):
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// pieces greedily splits word into the longest known subwords. A word that
// cannot be fully covered becomes a single [UNK].
func (w *wordPiece) pieces(word string) []string {
	rs := []rune(word)
	if len(rs) > maxWordRunes {
		return []string{"[UNK]"}
	}
	var out []string
	for start := 0; start < len(rs); {
		end := len(rs)
		var match string
		for ; end > start; end-- {
			cand := string(rs[start:end])
			if start > 0 {
				cand = subwordPrefix + cand
			}
			if w.vocab.has(cand) {
				match = cand
				break
			}
		}
		if match == "" {
			return []string{"[UNK]"}
		}
		out = append(out, match)
		start = end
	}
	return out
}

func isPunct(r rune) bool {
	if r < 128 {
		return (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
			(r >= 91 && r <= 96) || (r >= 123 && r <= 126)
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
