// Package input provides implementations for input modules.
// Input modules are responsible for reading the event table from a source.
package input

import (
	"context"
	"errors"

	"github.com/actorwatch/runtime/internal/pathutil"
	"github.com/actorwatch/runtime/internal/table"
)

// Source formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrMissingLocation is returned when a source has no path or URL.
var ErrMissingLocation = errors.New("source location is required")

// Module represents an input module that reads a table from a source.
type Module interface {
	// Fetch reads the whole source into memory.
	// The context can be used to cancel a remote download.
	Fetch(ctx context.Context) (*table.Table, error)
	// Close releases any resources held by the module.
	Close() error
}

// DetectFormat returns the configured format, or infers one from the location's extension.
// Anything that is not a workbook is read as CSV.
func DetectFormat(location, configured string) string {
	if configured != "" {
		return configured
	}
	switch pathutil.Ext(location) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}
