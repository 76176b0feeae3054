package input

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

const utf8BOM = "\ufeff"

// CSVSource reads a comma separated table from a file or an http(s) URL.
// The first record is the header; empty fields become missing cells.
type CSVSource struct {
	location string
	client   *http.Client
}

// NewCSVSource creates a CSV input module for a path or URL.
func NewCSVSource(location string) (*CSVSource, error) {
	if strings.TrimSpace(location) == "" {
		return nil, ErrMissingLocation
	}
	return &CSVSource{location: location, client: defaultClient()}, nil
}

// Fetch reads the whole table.
func (s *CSVSource) Fetch(ctx context.Context) (*table.Table, error) {
	start := time.Now()

	rc, err := openLocation(ctx, s.client, FormatCSV, s.location)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			logger.Warn("failed to close source", "location", s.location, "error", closeErr.Error())
		}
	}()

	t, err := ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.location, err)
	}

	logger.Debug("csv source read",
		slog.String("location", s.location),
		slog.Int("columns", len(t.Columns)),
		slog.Int("record_count", t.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return t, nil
}

// Close releases resources (idle HTTP connections).
func (s *CSVSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// ReadCSV parses a CSV stream into a table.
// Short records are padded with missing cells; records longer than the header are a parse error.
func ReadCSV(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errhandling.NewParseError("source is empty, no header row", err)
	}
	if err != nil {
		return nil, classifyReadError(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	t := table.New(header...)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyReadError(err)
		}
		if err := t.AppendStrings(record...); err != nil {
			line, _ := cr.FieldPos(0)
			return nil, errhandling.NewParseError(fmt.Sprintf("line %d", line), err)
		}
	}
	return t, nil
}

func classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return errhandling.NewParseError("malformed csv", err)
	}
	return errhandling.NewIOError("reading csv", err)
}

// Verify CSVSource implements Module
var _ Module = (*CSVSource)(nil)
