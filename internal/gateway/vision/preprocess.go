package vision

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"github.com/hejijunhao/kimo/internal/model"
)

// layout is the tensor memory order expected by the model input.
type layout int

const (
	nchw layout = iota
	nhwc
)

// preprocess resizes img to size×size and returns a flat float32 tensor in
// the given layout, with channels scaled to [-1,1] (MobileNet v2 convention).
func preprocess(img image.Image, size int, l layout) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := dst.PixOffset(x, y)
			px := dst.Pix[off : off+3]
			for c := 0; c < 3; c++ {
				v := float32(px[c])/127.5 - 1
				if l == nchw {
					out[c*plane+y*size+x] = v
				} else {
					out[(y*size+x)*3+c] = v
				}
			}
		}
	}
	return out
}

// softmax converts logits to probabilities. Inputs that already sum to ~1
// with no negatives are returned unchanged.
func softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	var sum float64
	isProb := true
	for _, v := range logits {
		if v < 0 || v > 1 {
			isProb = false
		}
		sum += float64(v)
	}
	if isProb && math.Abs(sum-1) < 1e-3 {
		for i, v := range logits {
			out[i] = float64(v)
		}
		return out
	}

	maxV := float64(logits[0])
	for _, v := range logits[1:] {
		maxV = math.Max(maxV, float64(v))
	}
	sum = 0
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// topK returns the k most probable labels, sorted descending. offset skips
// a leading background class when the model has one more output than labels.
func topK(probs []float64, labels []string, offset, k int) []model.Prediction {
	idx := make([]int, 0, len(probs))
	for i := offset; i < len(probs); i++ {
		if i-offset < len(labels) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })
	if k > 0 && len(idx) > k {
		idx = idx[:k]
	}
	out := make([]model.Prediction, len(idx))
	for i, j := range idx {
		out[i] = model.Prediction{
			Label:      labels[j-offset],
			Confidence: clamp01(probs[j]),
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
