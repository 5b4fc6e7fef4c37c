package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound - document record does not exist
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentNotIndexed - document exists but has no index entries yet
	ErrDocumentNotIndexed = errors.New("document is not indexed")

	// ErrRunNotFound - analysis run does not exist
	ErrRunNotFound = errors.New("analysis run not found")

	// ErrFindingNotFound - finding does not exist
	ErrFindingNotFound = errors.New("finding not found")
)

// ConfigurationError reports an invalid threshold or parameter combination,
// e.g. a chunk overlap larger than the chunk size. Configuration errors are
// raised before any work starts and abort the run.
type ConfigurationError struct {
	Field  string // offending configuration field
	Reason string // why the value is invalid
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a configuration error for a field.
func NewConfigurationError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
