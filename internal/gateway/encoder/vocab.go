package encoder

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// vocab maps WordPiece tokens to IDs; the ID is the 0-indexed line number
// in vocab.txt.
type vocab struct {
	ids map[string]int64

	pad, unk, cls, sep int64
}

func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()
	return readVocab(f)
}

func readVocab(r io.Reader) (*vocab, error) {
	v := &vocab{ids: make(map[string]int64, 32000)}
	sc := bufio.NewScanner(r)
	var n int64
	for sc.Scan() {
		v.ids[sc.Text()] = n
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read error: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("vocab: empty vocabulary")
	}

	for tok, dst := range map[string]*int64{
		"[PAD]": &v.pad,
		"[UNK]": &v.unk,
		"[CLS]": &v.cls,
		"[SEP]": &v.sep,
	} {
		id, ok := v.ids[tok]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", tok)
		}
		*dst = id
	}
	return v, nil
}

func (v *vocab) id(tok string) int64 {
	if id, ok := v.ids[tok]; ok {
		return id
	}
	return v.unk
}

func (v *vocab) has(tok string) bool {
	_, ok := v.ids[tok]
	return ok
}
