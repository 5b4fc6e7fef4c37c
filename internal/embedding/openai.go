package embedding

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient calls an OpenAI-compatible embeddings endpoint.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates an OpenAI embedding client.
func NewOpenAIClient(opts ...Option) (Client, error) {
	config := NewConfig(opts...)

	if config.APIKey == "" {
		return nil, NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the model identifier.
func (c *OpenAIClient) Name() string {
	return c.config.Model
}

// Dimensions returns the vector dimensionality.
func (c *OpenAIClient) Dimensions() int {
	return c.config.Dimensions
}

// Embed generates the vector for a single text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewEmbeddingError(ErrCodeEmptyInput, ErrMsgEmptyInput)
	}

	vectors, err := c.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for multiple texts, in input order.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, NewEmbeddingError(ErrCodeEmptyInput, ErrMsgEmptyInput)
		}
	}
	if c.config.BatchSize > 0 && len(texts) > c.config.BatchSize {
		return nil, NewEmbeddingError(ErrCodeInvalidRequest, "batch size exceeds the configured limit")
	}

	return c.request(ctx, texts)
}

// request sends one embeddings call with exponential-backoff retries on
// transient failures.
func (c *OpenAIClient) request(ctx context.Context, texts []string) ([][]float32, error) {
	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, NewEmbeddingError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(wait):
			}
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		resp, err := c.client.CreateEmbeddings(timeoutCtx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(c.config.Model),
		})
		cancel()

		if err == nil {
			if len(resp.Data) != len(texts) {
				return nil, NewEmbeddingError(ErrCodeServerError,
					"embedding response count does not match input count")
			}
			vectors := make([][]float32, len(resp.Data))
			for i, data := range resp.Data {
				if c.config.Dimensions > 0 && len(data.Embedding) != c.config.Dimensions {
					return nil, NewEmbeddingError(ErrCodeBadDimension,
						"embedding dimensionality does not match the configured model")
				}
				vectors[i] = data.Embedding
			}
			return vectors, nil
		}

		lastErr = classifyAPIError(err)
		if embErr, ok := lastErr.(EmbeddingError); !ok || !embErr.IsRetryable() {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// classifyAPIError maps transport errors onto embedding error codes.
func classifyAPIError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate_limit") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return NewEmbeddingError(ErrCodeRateLimited, ErrMsgRateLimited)
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return NewEmbeddingError(ErrCodeTimeout, ErrMsgTimeout)
	case strings.Contains(msg, "401") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "unauthorized"):
		return NewEmbeddingError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		return NewEmbeddingError(ErrCodeServerError, ErrMsgServerError)
	default:
		return NewEmbeddingError(ErrCodeNetworkError, err.Error())
	}
}

func init() {
	RegisterClient("openai", NewOpenAIClient)
}
