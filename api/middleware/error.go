package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sheorananshul/contract-analyzer/api/model"
	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/models"
)

const (
	// ErrorTypeValidation - malformed or missing input
	ErrorTypeValidation = "VALIDATION_ERROR"
	// ErrorTypeNotFound - the addressed resource does not exist
	ErrorTypeNotFound = "NOT_FOUND_ERROR"
	// ErrorTypeConflict - the resource is in the wrong state for the request
	ErrorTypeConflict = "CONFLICT_ERROR"
	// ErrorTypeInternal - unexpected server failure
	ErrorTypeInternal = "INTERNAL_ERROR"
)

// AppError is an error the API maps to a specific HTTP status.
type AppError struct {
	Type    string
	Message string
	Details string
	Code    int
}

// Error implements the error interface.
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError creates a 400 error.
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewConflictError creates a 409 error.
func NewConflictError(message string) AppError {
	return AppError{
		Type:    ErrorTypeConflict,
		Message: message,
		Code:    http.StatusConflict,
	}
}

// NewInternalError creates a 500 error.
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// ErrorMiddleware recovers panics and converts errors attached to the
// context into JSON error responses.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithFields(logrus.Fields{
					"error": err,
					"stack": string(debug.Stack()),
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				resp := model.NewErrorResponse(http.StatusInternalServerError, "An unexpected error occurred")
				resp.TraceID = TraceID(c)
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		traceID := TraceID(c)
		appErr := classify(err)

		log.WithFields(logrus.Fields{
			"error_type": appErr.Type,
			"trace_id":   traceID,
			"path":       c.Request.URL.Path,
		}).Error(appErr.Message)

		resp := model.NewErrorResponse(appErr.Code, appErr.Message)
		resp.TraceID = traceID
		c.JSON(appErr.Code, resp)
		c.Abort()
	}
}

// classify maps an error to its HTTP representation. Domain sentinel
// errors become 404s, configuration and chunking errors 400s, everything
// else 500.
func classify(err error) AppError {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, models.ErrDocumentNotFound),
		errors.Is(err, models.ErrRunNotFound),
		errors.Is(err, models.ErrFindingNotFound):
		return NewNotFoundError(err.Error())
	case errors.Is(err, models.ErrDocumentNotIndexed):
		return NewConflictError(err.Error())
	}

	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		return NewValidationError(err.Error())
	}

	var chunkErr *document.ChunkingError
	if errors.As(err, &chunkErr) {
		return NewValidationError(err.Error())
	}

	msg := "Internal server error"
	if gin.Mode() == gin.DebugMode {
		msg = err.Error()
	}
	return NewInternalError(msg)
}

// HandleError attaches an error to the context for ErrorMiddleware.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}
