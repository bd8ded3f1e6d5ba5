package embed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2"
)

// config holds shared configuration for embedder implementations.
type config struct {
	model      string
	dim        int
	baseURL    string
	maxBatch   int
	httpClient *http.Client
	retries    int
	backoff    gax.Backoff
}

// Option configures an embedder.
type Option func(*config)

// WithModel sets the embedding model name.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithDimension sets the desired output vector dimensionality.
// Not all models support this (e.g. text-embedding-v1/v2 have fixed dims).
func WithDimension(dim int) Option {
	return func(c *config) { c.dim = dim }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithMaxBatch caps the number of texts sent per request.
func WithMaxBatch(n int) Option {
	return func(c *config) { c.maxBatch = n }
}

// WithRetries sets how many times a transiently failed request is retried.
// Zero disables retries.
func WithRetries(n int) Option {
	return func(c *config) { c.retries = max(n, 0) }
}

// WithRetryBackoff sets the first and the largest pause between retries.
func WithRetryBackoff(initial, maxPause time.Duration) Option {
	return func(c *config) {
		c.backoff = gax.Backoff{Initial: initial, Max: maxPause, Multiplier: 2}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

func newConfig(defaults config, opts []Option) config {
	cfg := defaults
	if cfg.httpClient == nil {
		cfg.httpClient = http.DefaultClient
	}
	cfg.retries = DefaultRetries
	cfg.backoff = defaultBackoff
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxBatch <= 0 {
		cfg.maxBatch = 1
	}
	return cfg
}

func (c config) newRetrier() retrier {
	return retrier{retries: c.retries, backoff: c.backoff}
}

// Provider names accepted by [New].
const (
	ProviderHashing   = "hashing"
	ProviderOpenAI    = "openai"
	ProviderDashScope = "dashscope"
	ProviderGemini    = "gemini"
)

// Config selects and configures an embedder by provider name, as read from
// a config file. Zero fields take the provider's defaults.
type Config struct {
	Provider  string `json:"provider" yaml:"provider"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Dimension int    `json:"dimension,omitempty" yaml:"dimension,omitempty"`
}

func (c Config) options() []Option {
	var opts []Option
	if c.Model != "" {
		opts = append(opts, WithModel(c.Model))
	}
	if c.BaseURL != "" {
		opts = append(opts, WithBaseURL(c.BaseURL))
	}
	if c.Dimension > 0 {
		opts = append(opts, WithDimension(c.Dimension))
	}
	return opts
}

// New builds the embedder named by cfg.Provider. An empty provider means
// ProviderHashing.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderHashing:
		return NewHashing(cfg.Dimension), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embed: %s: api key is required", ProviderOpenAI)
		}
		return NewOpenAI(cfg.APIKey, cfg.options()...), nil
	case ProviderDashScope:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embed: %s: api key is required", ProviderDashScope)
		}
		return NewDashScope(cfg.APIKey, cfg.options()...), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embed: %s: api key is required", ProviderGemini)
		}
		return NewGemini(ctx, cfg.APIKey, cfg.options()...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
