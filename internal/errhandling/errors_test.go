// Package errhandling provides error types and classification for the actorwatch runtime.
package errhandling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"
)

// TestErrorCategory tests error category constants and their string values.
func TestErrorCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{CategoryIO, "io"},
		{CategoryNetwork, "network"},
		{CategorySchema, "schema"},
		{CategoryParse, "parse"},
		{CategoryInput, "input"},
		{CategoryConfig, "config"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.category) != tt.expected {
				t.Errorf("ErrorCategory = %v, want %v", tt.category, tt.expected)
			}
		})
	}
}

func TestClassifiedError(t *testing.T) {
	t.Run("Error message formatting", func(t *testing.T) {
		err := NewIOError("reading source", errors.New("permission denied"))
		got := err.Error()
		if !strings.Contains(got, "io") || !strings.Contains(got, "reading source") || !strings.Contains(got, "permission denied") {
			t.Errorf("Error() = %q, want category, message and cause", got)
		}
	})

	t.Run("status code is reported", func(t *testing.T) {
		err := ClassifyHTTPStatus(503, "")
		if !strings.Contains(err.Error(), "status 503") {
			t.Errorf("Error() = %q, want status code", err.Error())
		}
	})

	t.Run("Unwrap returns original error", func(t *testing.T) {
		original := errors.New("original error")
		err := NewParseError("bad header", original)
		if err.Unwrap() != original {
			t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), original)
		}
		if !errors.Is(fmt.Errorf("wrapped: %w", err), original) {
			t.Error("errors.Is should reach the original error through wrapping")
		}
	})
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status    int
		category  ErrorCategory
		retryable bool
	}{
		{404, CategoryIO, false},
		{403, CategoryIO, false},
		{429, CategoryNetwork, true},
		{500, CategoryNetwork, true},
		{502, CategoryNetwork, true},
		{302, CategoryUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			got := ClassifyHTTPStatus(tt.status, "msg")
			if got.Category != tt.category {
				t.Errorf("Category = %v, want %v", got.Category, tt.category)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if got.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.status)
			}
		})
	}
}

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
	}{
		{"nil", nil, CategoryUnknown, false},
		{"canceled", context.Canceled, CategoryNetwork, false},
		{"deadline", context.DeadlineExceeded, CategoryNetwork, true},
		{"dns", &net.DNSError{Name: "example.invalid"}, CategoryNetwork, true},
		{"op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, CategoryNetwork, true},
		{"url", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("eof")}, CategoryNetwork, true},
		{"other", errors.New("boom"), CategoryNetwork, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got.Category != tt.category {
				t.Errorf("Category = %v, want %v", got.Category, tt.category)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Run("already classified is returned as is", func(t *testing.T) {
		schemaErr := NewSchemaError("event_type")
		wrapped := fmt.Errorf("stage failed: %w", schemaErr)
		if got := ClassifyError(wrapped); got != schemaErr {
			t.Errorf("ClassifyError() = %v, want the wrapped ClassifiedError", got)
		}
	})

	t.Run("unknown error", func(t *testing.T) {
		got := ClassifyError(errors.New("boom"))
		if got.Category != CategoryUnknown {
			t.Errorf("Category = %v, want unknown", got.Category)
		}
	})

	t.Run("url error is network", func(t *testing.T) {
		got := ClassifyError(&url.Error{Op: "Get", URL: "http://x", Err: errors.New("eof")})
		if got.Category != CategoryNetwork {
			t.Errorf("Category = %v, want network", got.Category)
		}
	})
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"input", NewInputError("year must be digits", nil), false},
		{"schema", NewSchemaError("admin1"), true},
		{"io", NewIOError("write", nil), true},
		{"config", NewConfigError("bad", nil), true},
		{"plain", errors.New("plain"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError("actor1")
	if !IsCategory(err, CategorySchema) {
		t.Errorf("category = %v, want schema", err.Category)
	}
	if !strings.Contains(err.Error(), `"actor1"`) {
		t.Errorf("Error() = %q, want column name", err.Error())
	}
}
