package vecindex

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2}, []float32{3, 6}, 1},
		{"opposite", []float32{1, 0}, []float32{-2, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 5}, 0},
		{"zero left", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero right", []float32{1, 1}, []float32{0, 0}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		n := 1 + r.IntN(16)
		a, b := make([]float32, n), make([]float32, n)
		for i := range n {
			a[i] = float32(r.NormFloat64())
			b[i] = float32(r.NormFloat64())
		}
		if s := CosineSimilarity(a, b); s < -1 || s > 1 || math.IsNaN(s) {
			t.Fatalf("CosineSimilarity(%v, %v) = %v out of range", a, b, s)
		}
		if s := CosineSimilarity(a, a); math.Abs(s-1) > 1e-6 {
			t.Fatalf("self similarity = %v", s)
		}
	}
}

func TestCheckVector(t *testing.T) {
	if err := checkVector("ok", []float32{0, -1.5, 3}); err != nil {
		t.Fatalf("valid vector rejected: %v", err)
	}
	err := checkVector("bad", []float32{1, float32(math.Inf(1))})
	ive, ok := err.(*InvalidVectorError)
	if !ok {
		t.Fatalf("err = %T, want *InvalidVectorError", err)
	}
	if ive.Reason != "component 1 is +Inf" {
		t.Errorf("Reason = %q", ive.Reason)
	}
}
