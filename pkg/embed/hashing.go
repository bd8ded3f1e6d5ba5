package embed

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashingDimension is the bucket count used when none is given.
const DefaultHashingDimension = 256

// Hashing is a local [Embedder] based on the hashing trick: each lowercase
// word, each adjacent word pair and each character trigram of a
// space-padded word is hashed into one of Dimension buckets with a
// hash-derived sign, and the result is L2-normalized.
//
// Texts that share words or word fragments get similar vectors, which also
// covers unsegmented scripts such as Chinese. There is no notion of meaning
// beyond that; use it for tests, demos and offline indexes.
type Hashing struct {
	dim int
}

var _ Embedder = (*Hashing)(nil)

// NewHashing creates a Hashing embedder. dim <= 0 means
// DefaultHashingDimension.
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDimension
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	return h.vector(text), nil
}

func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vecs[i] = h.vector(t)
	}
	return vecs, nil
}

func (h *Hashing) Dimension() int { return h.dim }

func (h *Hashing) vector(text string) []float32 {
	vec := make([]float64, h.dim)
	tokens := tokenize(text)
	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
		h.addTrigrams(vec, tok, 0.5)
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (h *Hashing) add(vec []float64, feature string, weight float64) {
	sum := xxhash.Sum64String(feature)
	idx := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

// addTrigrams adds every rune trigram of " tok ", so "go" yields " go" and
// "go ".
func (h *Hashing) addTrigrams(vec []float64, tok string, weight float64) {
	runes := []rune(" " + tok + " ")
	for i := 0; i+3 <= len(runes); i++ {
		h.add(vec, "#"+string(runes[i:i+3]), weight)
	}
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
