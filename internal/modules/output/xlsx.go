package output

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// XLSXSink writes a table to a single-sheet workbook, overwriting the file.
type XLSXSink struct {
	path         string
	sheet        string
	includeIndex bool
}

// NewXLSXSink creates a workbook output module. Sheet names are cut to 31 characters.
func NewXLSXSink(path, sheet string, includeIndex bool) (*XLSXSink, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	if r := []rune(sheet); len(r) > maxSheetName {
		sheet = string(r[:maxSheetName])
	}
	return &XLSXSink{path: path, sheet: sheet, includeIndex: includeIndex}, nil
}

// Send writes a bold header row followed by the data rows. Missing cells stay blank.
func (s *XLSXSink) Send(ctx context.Context, t *table.Table) (int, error) {
	if t == nil {
		return 0, ErrNilTable
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName(wb.GetSheetName(wb.GetActiveSheetIndex()), s.sheet); err != nil {
		return 0, errhandling.NewIOError("naming sheet "+s.sheet, err)
	}

	head := header(t, s.includeIndex)
	headRow := make([]interface{}, len(head))
	for i, h := range head {
		headRow[i] = h
	}
	if err := wb.SetSheetRow(s.sheet, "A1", &headRow); err != nil {
		return 0, errhandling.NewIOError("writing header", err)
	}
	if err := boldHeader(wb, s.sheet); err != nil {
		// The data is still written; only the header formatting is lost.
		logger.Debug("xlsx header style not applied",
			slog.String("path", s.path),
			slog.String("sheet", s.sheet),
			slog.String("error", err.Error()),
		)
	}

	for i, row := range t.Rows {
		values := make([]interface{}, 0, len(row.Values)+1)
		if s.includeIndex {
			values = append(values, row.Index)
		}
		for _, v := range row.Values {
			values = append(values, v.Any())
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, errhandling.NewIOError("addressing row", err)
		}
		if err := wb.SetSheetRow(s.sheet, cell, &values); err != nil {
			return 0, errhandling.NewIOError("writing row", err)
		}
	}

	if err := wb.SaveAs(s.path); err != nil {
		return 0, errhandling.NewIOError("saving "+s.path, err)
	}

	logger.Debug("xlsx written",
		slog.String("path", s.path),
		slog.String("sheet", s.sheet),
		slog.Int("record_count", t.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return t.Len(), nil
}

// boldHeader sets a bold font on the first row of sheet.
func boldHeader(wb *excelize.File, sheet string) error {
	style, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := wb.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("styling header row: %w", err)
	}
	return nil
}

// Close releases resources (no-op, the workbook is closed by Send).
func (s *XLSXSink) Close() error {
	return nil
}

// Verify XLSXSink implements Module
var _ Module = (*XLSXSink)(nil)
