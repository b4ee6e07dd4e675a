package encoder

import "math"

// meanPool averages hidden states over unmasked tokens and L2-normalizes
// each pooled vector. hidden is [size*seqLen*dim], mask is [size*seqLen].
func meanPool(hidden []float32, mask []int64, size, seqLen, dim int64) [][]float32 {
	out := make([][]float32, size)
	for b := int64(0); b < size; b++ {
		vec := make([]float32, dim)
		var n float32
		for s := int64(0); s < seqLen; s++ {
			if mask[b*seqLen+s] != 1 {
				continue
			}
			n++
			tok := hidden[(b*seqLen+s)*dim : (b*seqLen+s+1)*dim]
			for d := range vec {
				vec[d] += tok[d]
			}
		}
		if n > 0 {
			for d := range vec {
				vec[d] /= n
			}
		}
		out[b] = normalize(vec)
	}
	return out
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
