package filter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/period"
	"github.com/actorwatch/runtime/internal/table"
)

// PeriodFilter keeps the rows of one month.
//
// In numeric mode event_month must equal the "YYYY-MM" label; in textual mode
// event_date must contain "<MonthName> <Year>", ignoring case. Missing cells
// never match. After filtering a one-line report is written to Console.
type PeriodFilter struct {
	resolver   period.Resolver
	console    io.Writer
	outputDir  string
	eventTypes []string

	selected     period.Spec
	selectedRows int
}

// NewPeriodFilter creates a period filter. outputDir is named in the report when
// rows were found; eventTypes are named when none were.
func NewPeriodFilter(resolver period.Resolver, console io.Writer, outputDir string, eventTypes []string) *PeriodFilter {
	if console == nil {
		console = io.Discard
	}
	return &PeriodFilter{
		resolver:   resolver,
		console:    console,
		outputDir:  outputDir,
		eventTypes: eventTypes,
	}
}

// Selected returns the period chosen by the last Process call.
func (f *PeriodFilter) Selected() period.Spec {
	return f.selected
}

// SelectedRows returns the number of rows kept by the last Process call.
func (f *PeriodFilter) SelectedRows() int {
	return f.selectedRows
}

// Process resolves the period and filters t.
func (f *PeriodFilter) Process(ctx context.Context, t *table.Table) (*table.Table, error) {
	spec, err := f.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	f.selected = spec

	out, err := SelectPeriod(t, spec)
	if err != nil {
		return nil, err
	}

	f.selectedRows = out.Len()
	logger.Info("period selected",
		slog.String("period", spec.Label()),
		slog.String("mode", spec.Mode().String()),
		slog.Int("record_count", out.Len()),
	)
	f.report(spec, out.Len())
	return out, nil
}

// SelectPeriod returns the rows of t that belong to spec.
func SelectPeriod(t *table.Table, spec period.Spec) (*table.Table, error) {
	if spec.Mode() == period.ModeNumeric {
		idx, err := t.ColumnIndex(ColumnEventMonth)
		if err != nil {
			return nil, err
		}
		label := spec.Label()
		return t.Filter(func(r table.Row) bool {
			v := r.Values[idx]
			return !v.IsMissing() && v.String() == label
		}), nil
	}

	idx, err := t.ColumnIndex(ColumnEventDate)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(spec.DateText())
	return t.Filter(func(r table.Row) bool {
		v := r.Values[idx]
		return !v.IsMissing() && strings.Contains(strings.ToLower(v.String()), needle)
	}), nil
}

func (f *PeriodFilter) report(spec period.Spec, count int) {
	month, year := spec.Month.Name(), string(spec.Year)
	var msg string
	if count == 0 {
		msg = fmt.Sprintf("The CSV file is empty: either there have been no %s on %s of %s, or the year %s is out of scope",
			strings.Join(f.eventTypes, " or "), month, year, year)
	} else {
		msg = fmt.Sprintf("The Data you acquired (for %s) is to be found in the following Directory: %s",
			spec.String(), f.outputDir)
	}
	if _, err := fmt.Fprintln(f.console, msg); err != nil {
		logger.Warn("failed to write period report", slog.String("error", err.Error()))
	}
}

// Verify PeriodFilter implements Module
var _ Module = (*PeriodFilter)(nil)
