package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini embedding models.
const (
	ModelGeminiEmbedding = "gemini-embedding-001"
	ModelTextEmbedding4  = "text-embedding-004"
)

var geminiDefaults = config{
	model:    ModelGeminiEmbedding,
	dim:      768,
	maxBatch: 100,
}

// Gemini implements [Embedder] with the Gemini API's batchEmbedContents.
type Gemini struct {
	client   *genai.Client
	model    string
	dim      int
	maxBatch int
	retry    retrier
}

var _ Embedder = (*Gemini)(nil)

// NewGemini creates a Gemini embedder. WithDimension sets the requested
// output dimensionality.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*Gemini, error) {
	cfg := newConfig(geminiDefaults, opts)
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("embed: gemini client: %w", err)
	}
	return &Gemini{
		client:   client,
		model:    cfg.model,
		dim:      cfg.dim,
		maxBatch: cfg.maxBatch,
		retry:    cfg.newRetrier(),
	}, nil
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, g, text)
}

func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return inBatches(texts, g.maxBatch, func(batch []string) ([][]float32, error) {
		return g.call(ctx, batch)
	})
}

func (g *Gemini) Dimension() int { return g.dim }

// Model returns the Gemini model name.
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) call(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	dim := int32(g.dim)
	var resp *genai.EmbedContentResponse
	err := g.retry.do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	vecs := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
		vecs[i] = e.Values
	}
	return vecs, nil
}
