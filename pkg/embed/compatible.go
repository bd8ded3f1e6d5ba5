package embed

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI embedding models.
const (
	// ModelOpenAI3Small is the small embedding model (1536 dims, customizable).
	ModelOpenAI3Small = "text-embedding-3-small"

	// ModelOpenAI3Large is the large embedding model (3072 dims, customizable).
	ModelOpenAI3Large = "text-embedding-3-large"

	// ModelOpenAIAda002 is the legacy model (1536 dims, fixed).
	ModelOpenAIAda002 = "text-embedding-ada-002"
)

// DashScope embedding models.
const (
	// ModelDashScopeV4 supports 100+ languages, dimensions 64 to 2048.
	ModelDashScopeV4 = "text-embedding-v4"

	// ModelDashScopeV3 supports 50+ languages, dimensions 64 to 1024.
	ModelDashScopeV3 = "text-embedding-v3"
)

const dashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

var (
	openAIDefaults = config{
		model:    ModelOpenAI3Small,
		dim:      1536,
		maxBatch: 2048,
	}
	dashScopeDefaults = config{
		model:    ModelDashScopeV4,
		dim:      1024,
		baseURL:  dashScopeBaseURL,
		maxBatch: 10,
	}
)

// Compatible implements [Embedder] against an OpenAI-compatible embeddings
// endpoint.
type Compatible struct {
	client   *openai.Client
	model    string
	dim      int
	maxBatch int
	retry    retrier
}

var _ Embedder = (*Compatible)(nil)

// NewOpenAI creates an embedder for the OpenAI API. Point it at another
// OpenAI-compatible provider (e.g. SiliconFlow) with WithBaseURL.
func NewOpenAI(apiKey string, opts ...Option) *Compatible {
	return newCompatible(apiKey, newConfig(openAIDefaults, opts))
}

// NewDashScope creates an embedder for Aliyun DashScope's compatible mode,
// which accepts at most 10 inputs per request.
func NewDashScope(apiKey string, opts ...Option) *Compatible {
	return newCompatible(apiKey, newConfig(dashScopeDefaults, opts))
}

func newCompatible(apiKey string, cfg config) *Compatible {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)
	return &Compatible{
		client:   &client,
		model:    cfg.model,
		dim:      cfg.dim,
		maxBatch: cfg.maxBatch,
		retry:    cfg.newRetrier(),
	}
}

func (c *Compatible) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, c, text)
}

func (c *Compatible) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return inBatches(texts, c.maxBatch, func(batch []string) ([][]float32, error) {
		return c.call(ctx, batch)
	})
}

func (c *Compatible) Dimension() int { return c.dim }

// Model returns the model identifier sent with each request.
func (c *Compatible) Model() string { return c.model }

func (c *Compatible) call(ctx context.Context, texts []string) ([][]float32, error) {
	var resp *openai.CreateEmbeddingResponse
	err := c.retry.do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model:          c.model,
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
			Dimensions:     openai.Int(int64(c.dim)),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := item.Index
		if idx < 0 || idx >= int64(len(texts)) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", idx, len(texts))
		}
		vecs[idx] = toFloat32s(item.Embedding)
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}

func toFloat32s(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
