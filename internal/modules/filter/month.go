package filter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// MonthLabelLayout formats a date as its "YYYY-MM" month label.
const MonthLabelLayout = "2006-01"

// monthColumnPosition is where event_month is inserted: right after the first column.
const monthColumnPosition = 1

// DateLayouts are tried in order when parsing event_date.
// Slash dates are read month first. Single-digit day and month fields also
// accept two digits, so "1/2/2006" covers "01/02/2006".
var DateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2 January 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"1/2/2006",
	"2006/1/2",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseEventDate parses s with the first matching layout in DateLayouts.
func ParseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// MonthLabel returns the "YYYY-MM" label of a raw date, or a missing cell when it cannot be parsed.
func MonthLabel(v table.Value) table.Value {
	if v.IsMissing() {
		return table.Missing()
	}
	d, ok := ParseEventDate(v.String())
	if !ok {
		return table.Missing()
	}
	return table.String(d.Format(MonthLabelLayout))
}

// MonthDeriver adds event_month, derived from event_date, as the second column.
// Running it twice recomputes the column in place.
type MonthDeriver struct{}

// NewMonthDeriver creates a month deriver.
func NewMonthDeriver() *MonthDeriver {
	return &MonthDeriver{}
}

// Process derives the month column. Unparseable dates yield missing cells, never an error.
func (m *MonthDeriver) Process(_ context.Context, t *table.Table) (*table.Table, error) {
	dateIdx, err := t.ColumnIndex(ColumnEventDate)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	labels := make([]table.Value, out.Len())
	unparsed := 0
	for i, r := range out.Rows {
		labels[i] = MonthLabel(r.Values[dateIdx])
		if labels[i].IsMissing() && !r.Values[dateIdx].IsMissing() {
			unparsed++
		}
	}

	if err := out.InsertColumn(monthColumnPosition, ColumnEventMonth, labels); err != nil {
		return nil, err
	}

	if unparsed > 0 {
		logger.Warn("event dates could not be parsed",
			slog.Int("unparsed_count", unparsed),
			slog.Int("record_count", out.Len()),
		)
	}
	return out, nil
}

// Verify MonthDeriver implements Module
var _ Module = (*MonthDeriver)(nil)
