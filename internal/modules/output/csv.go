package output

import (
	"bufio"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"time"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// CSVSink writes a table as comma separated text, overwriting the file.
type CSVSink struct {
	path         string
	includeIndex bool
}

// NewCSVSink creates a CSV output module.
// With includeIndex the first column is unnamed and holds each row's source index.
func NewCSVSink(path string, includeIndex bool) (*CSVSink, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	return &CSVSink{path: path, includeIndex: includeIndex}, nil
}

// Path returns the destination file.
func (s *CSVSink) Path() string {
	return s.path
}

// Send writes the header and every row.
func (s *CSVSink) Send(ctx context.Context, t *table.Table) (int, error) {
	if t == nil {
		return 0, ErrNilTable
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()

	f, err := os.Create(s.path)
	if err != nil {
		return 0, errhandling.NewIOError("creating "+s.path, err)
	}

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)
	if err := w.Write(header(t, s.includeIndex)); err != nil {
		_ = f.Close()
		return 0, errhandling.NewIOError("writing "+s.path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(cells(row, s.includeIndex)); err != nil {
			_ = f.Close()
			return 0, errhandling.NewIOError("writing "+s.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return 0, errhandling.NewIOError("writing "+s.path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return 0, errhandling.NewIOError("writing "+s.path, err)
	}
	if err := f.Close(); err != nil {
		return 0, errhandling.NewIOError("closing "+s.path, err)
	}

	logger.Debug("csv written",
		slog.String("path", s.path),
		slog.Int("record_count", t.Len()),
		slog.Bool("index", s.includeIndex),
		slog.Duration("duration", time.Since(start)),
	)
	return t.Len(), nil
}

// Close releases resources (no-op, the file is closed by Send).
func (s *CSVSink) Close() error {
	return nil
}

// Verify CSVSink implements Module
var _ Module = (*CSVSink)(nil)
