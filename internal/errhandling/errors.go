// Package errhandling provides error types and classification for the actorwatch runtime.
// Every failure that leaves a pipeline stage is wrapped in a ClassifiedError so the
// runtime and the CLI can report a stable category without string matching.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryIO represents unreadable sources and unwritable destinations.
	CategoryIO ErrorCategory = "io"

	// CategoryNetwork represents transport failures while fetching a remote source.
	CategoryNetwork ErrorCategory = "network"

	// CategorySchema represents a required column that is absent from a table.
	CategorySchema ErrorCategory = "schema"

	// CategoryParse represents malformed source content (not malformed dates,
	// which are tolerated cell by cell).
	CategoryParse ErrorCategory = "parse"

	// CategoryInput represents an invalid year or month supplied by the user.
	CategoryInput ErrorCategory = "input"

	// CategoryConfig represents an invalid job configuration.
	CategoryConfig ErrorCategory = "config"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Retryable reports whether repeating the operation could succeed.
	// Nothing in the runtime retries; the flag only feeds reporting.
	Retryable bool

	// StatusCode is the HTTP status code (0 if not an HTTP error).
	StatusCode int

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Category, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s error (status %d): %s", e.Category, e.StatusCode, e.Message)
	}
	if e.OriginalErr != nil {
		msg += ": " + e.OriginalErr.Error()
	}
	return msg
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyHTTPStatus classifies a non-2xx response from a remote source.
//
// Classification rules:
//   - 404: io (the dataset does not exist)
//   - 429, 5xx: network, retryable
//   - other 4xx: io, not retryable
func ClassifyHTTPStatus(statusCode int, message string) *ClassifiedError {
	switch {
	case statusCode == 404:
		return &ClassifiedError{Category: CategoryIO, StatusCode: statusCode, Message: "source not found"}
	case statusCode == 429:
		return &ClassifiedError{Category: CategoryNetwork, Retryable: true, StatusCode: statusCode, Message: "rate limited"}
	case statusCode >= 500:
		return &ClassifiedError{Category: CategoryNetwork, Retryable: true, StatusCode: statusCode, Message: "server error"}
	case statusCode >= 400:
		return &ClassifiedError{Category: CategoryIO, StatusCode: statusCode, Message: "client error"}
	default:
		return &ClassifiedError{Category: CategoryUnknown, StatusCode: statusCode, Message: message}
	}
}

// ClassifyNetworkError classifies a transport error from a remote source.
func ClassifyNetworkError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{Category: CategoryUnknown, Message: "nil error"}
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{Category: CategoryNetwork, Message: "context canceled", OriginalErr: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Category: CategoryNetwork, Retryable: true, Message: "request timeout", OriginalErr: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     fmt.Sprintf("DNS error: %s", dnsErr.Name),
			OriginalErr: err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     fmt.Sprintf("network error: %s %s", opErr.Op, opErr.Net),
			OriginalErr: err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ClassifiedError{
			Category:    CategoryNetwork,
			Retryable:   true,
			Message:     fmt.Sprintf("URL error: %s %s", urlErr.Op, urlErr.URL),
			OriginalErr: err,
		}
	}

	return &ClassifiedError{Category: CategoryNetwork, Message: "transport error", OriginalErr: err}
}

// ClassifyError classifies any error into a ClassifiedError.
// Already classified errors are returned unchanged.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{Category: CategoryUnknown, Message: "nil error"}
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr) {
		return ClassifyNetworkError(err)
	}

	return &ClassifiedError{Category: CategoryUnknown, Message: err.Error(), OriginalErr: err}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}
	return CategoryUnknown
}

// IsFatal returns true if the error aborts a run.
// Only invalid interactive input is recovered locally (by prompting again), so
// every category except input is fatal once it reaches the runtime.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return GetErrorCategory(err) != CategoryInput
}

// IsCategory reports whether err carries the given category anywhere in its chain.
func IsCategory(err error, category ErrorCategory) bool {
	return err != nil && GetErrorCategory(err) == category
}

// NewIOError creates a ClassifiedError for file system failures.
func NewIOError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryIO, Message: message, OriginalErr: originalErr}
}

// NewSchemaError creates a ClassifiedError for a missing column.
func NewSchemaError(column string) *ClassifiedError {
	return &ClassifiedError{Category: CategorySchema, Message: fmt.Sprintf("required column %q is missing", column)}
}

// NewParseError creates a ClassifiedError for malformed source content.
func NewParseError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryParse, Message: message, OriginalErr: originalErr}
}

// NewInputError creates a ClassifiedError for an invalid year or month.
func NewInputError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryInput, Message: message, OriginalErr: originalErr}
}

// NewConfigError creates a ClassifiedError for an invalid job configuration.
func NewConfigError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{Category: CategoryConfig, Message: message, OriginalErr: originalErr}
}
