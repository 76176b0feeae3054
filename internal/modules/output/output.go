// Package output provides implementations for output modules.
// Output modules are responsible for writing a table to its destination.
package output

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/pathutil"
	"github.com/actorwatch/runtime/internal/table"
)

// Destination formats.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// ErrNilTable is returned when Send receives no table.
var ErrNilTable = errors.New("output: nil table")

// Module represents an output module that writes a table to a destination.
type Module interface {
	// Send writes the table, replacing any previous content of the destination.
	// Returns the number of rows written and any error.
	Send(ctx context.Context, t *table.Table) (int, error)

	// Close releases any resources held by the module.
	Close() error
}

// DetectFormat returns the configured format, or infers one from the path's extension.
func DetectFormat(path, configured string) string {
	if configured != "" {
		return configured
	}
	switch pathutil.Ext(path) {
	case ".xlsx":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

func validatePath(path string) error {
	if err := pathutil.ValidateFilePath(path); err != nil {
		return errhandling.NewConfigError(fmt.Sprintf("invalid output path %q", path), err)
	}
	return nil
}

// header returns the columns to write, with an unnamed index column first when requested.
func header(t *table.Table, includeIndex bool) []string {
	if !includeIndex {
		return t.Columns
	}
	return append([]string{""}, t.Columns...)
}

// cells returns the text of row i, prefixed with the row's source index when requested.
// Missing cells are written empty.
func cells(row table.Row, includeIndex bool) []string {
	out := make([]string, 0, len(row.Values)+1)
	if includeIndex {
		out = append(out, strconv.Itoa(row.Index))
	}
	for _, v := range row.Values {
		out = append(out, v.String())
	}
	return out
}
