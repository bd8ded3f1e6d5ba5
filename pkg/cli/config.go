package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/vecdb/pkg/embed"
	"github.com/haivivi/vecdb/pkg/metaschema"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".vecdb"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Storage backends a context can name.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendS3     = "s3"
)

// Environment variables consulted when a context has no embedder API key.
var apiKeyEnv = map[string]string{
	embed.ProviderOpenAI:    "OPENAI_API_KEY",
	embed.ProviderDashScope: "DASHSCOPE_API_KEY",
	embed.ProviderGemini:    "GEMINI_API_KEY",
}

// Config is the vecdb CLI configuration: a set of named contexts, each
// describing one index, and the one in use.
type Config struct {
	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context describes where an index lives and how its text is embedded.
type Context struct {
	Name string `yaml:"name"`

	Storage  Storage      `yaml:"storage"`
	Embedder embed.Config `yaml:"embedder"`

	// MaxFileSizeMB bounds snapshot size. Zero takes the backend default.
	MaxFileSizeMB float64 `yaml:"max_file_size_mb,omitempty"`

	// DisableAutoSave stops mutations from scheduling saves; the CLI then
	// saves once before exiting.
	DisableAutoSave bool `yaml:"disable_auto_save,omitempty"`

	// Debug turns on snapshot logging in the index.
	Debug bool `yaml:"debug,omitempty"`

	// MetadataSchema is a JSON Schema every added document's metadata
	// must satisfy.
	MetadataSchema map[string]any `yaml:"metadata_schema,omitempty"`
}

// Storage selects a backend and the snapshot path within it.
type Storage struct {
	// Backend is one of file, badger, s3. Empty means file.
	Backend string `yaml:"backend,omitempty"`

	// Path is the snapshot name inside the backend. Empty means
	// vectors.json.
	Path string `yaml:"path,omitempty"`

	// Dir is the root directory for the file backend and the database
	// directory for badger. Empty means the data directory.
	Dir string `yaml:"dir,omitempty"`

	S3 *S3Storage `yaml:"s3,omitempty"`
}

// S3Storage holds the object store settings for the s3 backend.
type S3Storage struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`
}

// LoadConfig loads the configuration at path, or at the default location
// when path is empty. A missing file yields an empty configuration that is
// written on first Save.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		paths, err := NewPaths()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = paths.ConfigFile()
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			return nil, fmt.Errorf("context %q is empty", name)
		}
		ctx.Name = name
	}
	cfg.configPath = path

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(c.Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext validates ctx and stores it under name. The first context
// added becomes current.
func (c *Config) AddContext(name string, ctx *Context) error {
	if name == "" {
		return errors.New("context name is required")
	}
	if err := ctx.Validate(); err != nil {
		return fmt.Errorf("context %q: %w", name, err)
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the named context, the current context when name
// is empty, or a default local context when neither exists.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name != "" {
		return c.GetContext(name)
	}
	if c.CurrentContext != "" {
		return c.GetContext(c.CurrentContext)
	}
	return &Context{Name: "default"}, nil
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Backend returns the storage backend, defaulting to file.
func (ctx *Context) Backend() string {
	if ctx.Storage.Backend == "" {
		return BackendFile
	}
	return strings.ToLower(ctx.Storage.Backend)
}

// Validate checks the backend settings.
func (ctx *Context) Validate() error {
	switch ctx.Backend() {
	case BackendFile, BackendBadger:
	case BackendS3:
		if ctx.Storage.S3 == nil || ctx.Storage.S3.Bucket == "" {
			return errors.New("s3 backend requires storage.s3.bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", ctx.Storage.Backend)
	}
	if ctx.MaxFileSizeMB < 0 {
		return fmt.Errorf("max_file_size_mb must not be negative, got %v", ctx.MaxFileSizeMB)
	}
	if _, err := ctx.Schema(); err != nil {
		return err
	}
	return nil
}

// Schema compiles MetadataSchema. It returns nil when the context has none.
func (ctx *Context) Schema() (*metaschema.Schema, error) {
	if len(ctx.MetadataSchema) == 0 {
		return nil, nil
	}
	s, err := metaschema.Compile(ctx.MetadataSchema)
	if err != nil {
		return nil, fmt.Errorf("metadata_schema: %w", err)
	}
	return s, nil
}

// EmbedderConfig returns the embedder settings with the API key filled in
// from the provider's environment variable when the context has none.
func (ctx *Context) EmbedderConfig() embed.Config {
	cfg := ctx.Embedder
	if cfg.APIKey == "" {
		if env, ok := apiKeyEnv[strings.ToLower(cfg.Provider)]; ok {
			cfg.APIKey = os.Getenv(env)
		}
	}
	return cfg
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Masked returns a copy of ctx with secrets masked, for display.
func (ctx *Context) Masked() *Context {
	out := *ctx
	out.Embedder.APIKey = MaskAPIKey(out.Embedder.APIKey)
	if ctx.Storage.S3 != nil {
		s3 := *ctx.Storage.S3
		s3.SecretAccessKey = MaskAPIKey(s3.SecretAccessKey)
		out.Storage.S3 = &s3
	}
	return &out
}
