// Package embed turns text into vectors for the index.
//
// Three families of [Embedder] are provided:
//
//   - [Compatible] talks to any OpenAI-compatible embeddings endpoint.
//     [NewOpenAI] and [NewDashScope] preset the model, base URL, batch
//     limit and dimension for OpenAI and Aliyun DashScope.
//   - [Gemini] uses the Google Gen AI SDK.
//   - [Hashing] runs locally with no network, hashing tokens into a fixed
//     number of buckets. It is meant for tests and offline use.
//
// Any Embedder's Embed method value can be handed to vecindex.New:
//
//	e := embed.NewOpenAI(os.Getenv("OPENAI_API_KEY"))
//	idx, err := vecindex.New[any](ctx, e.Embed, adapter, cfg)
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Embedder converts text into dense float32 vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embedding vectors for multiple texts, in order.
	// Implementations split large batches as their API requires.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

var (
	// ErrEmptyInput is returned when the input text is empty.
	ErrEmptyInput = errors.New("embed: empty input")

	// ErrUnknownProvider is returned by New for an unsupported provider.
	ErrUnknownProvider = errors.New("embed: unknown provider")
)

// embedOne implements Embed on top of EmbedBatch.
func embedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// inBatches calls fn on consecutive slices of at most size texts and
// concatenates the results.
func inBatches(texts []string, size int, fn func([]string) ([][]float32, error)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	result := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += size {
		end := min(i+size, len(texts))
		vecs, err := fn(texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed: batch [%d:%d]: %w", i, end, err)
		}
		result = append(result, vecs...)
	}
	return result, nil
}
