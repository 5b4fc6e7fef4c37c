package llm

import (
	"context"
	"time"
)

// Client is the chat-model contract used by the compliance evaluator.
type Client interface {
	// Generate produces a completion for a single prompt
	Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error)

	// Chat produces a completion for a message history
	Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error)

	// Name returns the model name
	Name() string
}

// Config is the chat-model client configuration.
type Config struct {
	APIKey      string        // API key
	BaseURL     string        // API base URL
	Model       string        // model name
	Timeout     time.Duration // per-request timeout
	MaxRetries  int           // retry budget for transient failures
	MaxTokens   int           // generation token limit
	Temperature float32       // sampling temperature; 0 keeps evaluation repeatable
}

// DefaultConfig returns defaults tuned for structured evaluation output:
// temperature 0 and a generous token limit for the JSON verdict.
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		MaxTokens:   2048,
		Temperature: 0,
	}
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

// WithMaxTokens sets the generation token limit.
func WithMaxTokens(tokens int) Option {
	return func(c *Config) {
		c.MaxTokens = tokens
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float32) Option {
	return func(c *Config) {
		c.Temperature = temp
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

// GenerateOption tunes a single request.
type GenerateOption func(*GenerateOptions)

// GenerateOptions is the per-request option set.
type GenerateOptions struct {
	MaxTokens   *int     // override the generation token limit
	Temperature *float32 // override the sampling temperature
	JSONOutput  bool     // force a JSON object response
}

// WithGenerateMaxTokens overrides the token limit for one request.
func WithGenerateMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = &tokens
	}
}

// WithGenerateTemperature overrides the temperature for one request.
func WithGenerateTemperature(temp float32) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = &temp
	}
}

// WithJSONOutput forces the model to return a JSON object.
func WithJSONOutput() GenerateOption {
	return func(o *GenerateOptions) {
		o.JSONOutput = true
	}
}

// Factory builds a chat-model client from options.
type Factory func(opts ...Option) (Client, error)

var clientFactories = make(map[string]Factory)

// RegisterClient registers a chat-model client factory.
func RegisterClient(name string, factory Factory) {
	clientFactories[name] = factory
}

// NewClient builds a registered chat-model client by name.
func NewClient(name string, opts ...Option) (Client, error) {
	factory, exists := clientFactories[name]
	if !exists {
		return nil, NewLLMError(
			ErrCodeInvalidRequest,
			"llm client type not registered: "+name)
	}
	return factory(opts...)
}
