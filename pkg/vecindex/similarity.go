package vecindex

import (
	"fmt"
	"math"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|), accumulated in float64
// and clamped to [-1, 1].
//
// It returns 0 when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return max(-1, min(1, s))
}

// checkVector rejects empty vectors and non-finite components.
func checkVector(content string, v []float32) error {
	if len(v) == 0 {
		return &InvalidVectorError{Content: content, Reason: "empty vector"}
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &InvalidVectorError{
				Content: content,
				Reason:  fmt.Sprintf("component %d is %v", i, x),
			}
		}
	}
	return nil
}
