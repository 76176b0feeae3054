package input

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// XLSXSource reads the first sheet of a workbook. Row 1 is the header.
type XLSXSource struct {
	location string
	sheet    string
	client   *http.Client
}

// NewXLSXSource creates a workbook input module for a path or URL.
// An empty sheet name selects the first sheet.
func NewXLSXSource(location, sheet string) (*XLSXSource, error) {
	if strings.TrimSpace(location) == "" {
		return nil, ErrMissingLocation
	}
	return &XLSXSource{location: location, sheet: sheet, client: defaultClient()}, nil
}

// Fetch reads the sheet into a table.
func (s *XLSXSource) Fetch(ctx context.Context) (*table.Table, error) {
	start := time.Now()

	rc, err := openLocation(ctx, s.client, FormatXLSX, s.location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	wb, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, errhandling.NewParseError("opening workbook "+s.location, err)
	}
	defer func() { _ = wb.Close() }()

	sheet := s.sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, errhandling.NewParseError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, errhandling.NewParseError(fmt.Sprintf("reading sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return nil, errhandling.NewParseError(fmt.Sprintf("sheet %q is empty, no header row", sheet), nil)
	}

	t := table.New(rows[0]...)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if err := t.AppendStrings(row...); err != nil {
			return nil, errhandling.NewParseError(fmt.Sprintf("sheet %q row %d", sheet, i+2), err)
		}
	}

	logger.Debug("xlsx source read",
		slog.String("location", s.location),
		slog.String("sheet", sheet),
		slog.Int("record_count", t.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return t, nil
}

// Close releases resources (idle HTTP connections).
func (s *XLSXSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Verify XLSXSource implements Module
var _ Module = (*XLSXSource)(nil)
