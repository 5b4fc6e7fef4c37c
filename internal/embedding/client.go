package embedding

import (
	"context"
	"time"
)

// Client turns text into embedding vectors.
type Client interface {
	// Embed generates the vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the model identifier
	Name() string

	// Dimensions returns the vector dimensionality
	Dimensions() int
}

// Config is the embedding client configuration.
type Config struct {
	APIKey      string        // API key
	BaseURL     string        // API base URL
	Model       string        // model name
	Timeout     time.Duration // per-request timeout
	MaxRetries  int           // retry budget for transient failures
	Dimensions  int           // vector dimensionality
	BatchSize   int           // max texts per API call
	EnableCache bool          // wrap the client in a vector cache
}

// Option mutates the client configuration.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(retries int) Option {
	return func(c *Config) {
		c.MaxRetries = retries
	}
}

// WithDimensions sets the vector dimensionality.
func WithDimensions(dimensions int) Option {
	return func(c *Config) {
		c.Dimensions = dimensions
	}
}

// WithBatchSize sets the max texts per API call.
func WithBatchSize(size int) Option {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithCache enables the embedding cache.
func WithCache(enable bool) Option {
	return func(c *Config) {
		c.EnableCache = enable
	}
}

// DefaultConfig returns defaults tuned for text-embedding-3-small.
func DefaultConfig() *Config {
	return &Config{
		Model:       "text-embedding-3-small",
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		Dimensions:  1536,
		BatchSize:   64,
		EnableCache: false,
	}
}

// NewConfig builds a config from options on top of the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Factory builds an embedding client from options.
type Factory func(opts ...Option) (Client, error)

var clientFactories = make(map[string]Factory)

// RegisterClient registers an embedding client factory.
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient builds a registered embedding client by name.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewEmbeddingError(
			ErrCodeInvalidRequest,
			"embedding client type not registered: "+name)
	}
	return factory(opts...)
}
