package embedding

import "fmt"

// EmbeddingError carries a stable error code so callers can tell transient
// failures (retry) from permanent ones (abort).
type EmbeddingError struct {
	Code    int    // error code
	Message string // error message
}

// Error implements the error interface.
func (e EmbeddingError) Error() string {
	return fmt.Sprintf("embedding error (code=%d): %s", e.Code, e.Message)
}

// Error codes
const (
	ErrCodeInvalidAPIKey  = 1001 // invalid API key
	ErrCodeInvalidRequest = 1002 // invalid request parameters
	ErrCodeNetworkError   = 1003 // network connection error
	ErrCodeRateLimited    = 1004 // rate limit exceeded
	ErrCodeServerError    = 1005 // server error
	ErrCodeTimeout        = 1006 // request timed out
	ErrCodeEmptyInput     = 1007 // empty input text
	ErrCodeBadDimension   = 1008 // response vector has the wrong dimensionality
)

// Error messages
const (
	ErrMsgInvalidAPIKey  = "invalid API key"
	ErrMsgInvalidRequest = "invalid request parameters"
	ErrMsgRateLimited    = "too many requests, rate limit exceeded"
	ErrMsgServerError    = "server error occurred"
	ErrMsgTimeout        = "request timed out"
	ErrMsgEmptyInput     = "input text cannot be empty"
	ErrMsgNetworkError   = "network connection error"
)

// NewEmbeddingError creates an embedding error.
func NewEmbeddingError(code int, message string) EmbeddingError {
	return EmbeddingError{
		Code:    code,
		Message: message,
	}
}

// IsRetryable reports whether the error is worth retrying.
func (e EmbeddingError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeNetworkError, ErrCodeServerError, ErrCodeTimeout:
		return true
	default:
		return false
	}
}
