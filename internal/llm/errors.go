package llm

import "fmt"

// LLMError carries a stable error code for chat-model failures.
type LLMError struct {
	Code    int    // error code
	Message string // error message
}

// Error implements the error interface.
func (e LLMError) Error() string {
	return fmt.Sprintf("llm error (code=%d): %s", e.Code, e.Message)
}

// Error codes
const (
	ErrCodeInvalidAPIKey  = 1001 // invalid API key
	ErrCodeInvalidRequest = 1002 // invalid request parameters
	ErrCodeNetworkError   = 1003 // network connection error
	ErrCodeRateLimited    = 1004 // rate limit exceeded
	ErrCodeServerError    = 1005 // server error
	ErrCodeTimeout        = 1006 // request timed out
	ErrCodeEmptyPrompt    = 1007 // empty prompt
	ErrCodeContentFilter  = 1008 // response blocked by a content filter
	ErrCodeContextTooLong = 1010 // context exceeds the model window
)

// Error messages
const (
	ErrMsgInvalidAPIKey  = "invalid API key"
	ErrMsgInvalidRequest = "invalid request parameters"
	ErrMsgRateLimited    = "too many requests, rate limit exceeded"
	ErrMsgServerError    = "server error occurred"
	ErrMsgTimeout        = "request timed out"
	ErrMsgEmptyPrompt    = "prompt cannot be empty"
	ErrMsgNetworkError   = "network connection error"
	ErrMsgContentFilter  = "content filtered due to safety concerns"
	ErrMsgContextTooLong = "context length exceeds model's maximum"
)

// NewLLMError creates a chat-model error.
func NewLLMError(code int, message string) LLMError {
	return LLMError{
		Code:    code,
		Message: message,
	}
}

// IsRetryable reports whether the error is worth retrying.
func (e LLMError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeNetworkError, ErrCodeServerError, ErrCodeTimeout:
		return true
	default:
		return false
	}
}
