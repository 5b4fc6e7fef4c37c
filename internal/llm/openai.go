package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates an OpenAI chat-model client.
func NewOpenAIClient(opts ...Option) (Client, error) {
	config := NewConfig(opts...)

	if config.APIKey == "" {
		return nil, NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
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

// Name returns the model name.
func (c *OpenAIClient) Name() string {
	return c.config.Model
}

// Generate produces a completion for a single prompt.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, options ...GenerateOption) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

// Chat produces a completion for a message history, retrying transient
// failures with exponential backoff.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, options ...GenerateOption) (*Response, error) {
	if len(messages) == 0 {
		return nil, NewLLMError(ErrCodeEmptyPrompt, ErrMsgEmptyPrompt)
	}

	opts := &GenerateOptions{}
	for _, opt := range options {
		opt(opts)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.JSONOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

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
				return nil, NewLLMError(ErrCodeTimeout, ctx.Err().Error())
			case <-time.After(wait):
			}
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		resp, err := c.client.CreateChatCompletion(timeoutCtx, req)
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, NewLLMError(ErrCodeServerError, "completion response has no choices")
			}
			choice := resp.Choices[0]
			return &Response{
				Text:         choice.Message.Content,
				FinishReason: string(choice.FinishReason),
				Usage: TokenUsage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}, nil
		}

		lastErr = classifyAPIError(err)
		if llmErr, ok := lastErr.(LLMError); !ok || !llmErr.IsRetryable() {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// classifyAPIError maps transport errors onto llm error codes.
func classifyAPIError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate_limit") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return NewLLMError(ErrCodeRateLimited, ErrMsgRateLimited)
	case strings.Contains(msg, "context deadline exceeded") || strings.Contains(msg, "timeout"):
		return NewLLMError(ErrCodeTimeout, ErrMsgTimeout)
	case strings.Contains(msg, "401") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "unauthorized"):
		return NewLLMError(ErrCodeInvalidAPIKey, ErrMsgInvalidAPIKey)
	case strings.Contains(msg, "context length") || strings.Contains(msg, "maximum context"):
		return NewLLMError(ErrCodeContextTooLong, ErrMsgContextTooLong)
	case strings.Contains(msg, "content_filter") || strings.Contains(msg, "content filter"):
		return NewLLMError(ErrCodeContentFilter, ErrMsgContentFilter)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		return NewLLMError(ErrCodeServerError, ErrMsgServerError)
	default:
		return NewLLMError(ErrCodeNetworkError, err.Error())
	}
}

func init() {
	RegisterClient("openai", NewOpenAIClient)
}
