package filter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// ActorRegions is one summary row: the regions an actor was active in, in one
// country and month.
type ActorRegions struct {
	Country    string
	EventMonth string
	Actor      string
	// Regions in row order of the unified table. A region repeats only when it
	// came from distinct unified rows.
	Regions []string
}

// RegionsLiteral renders Regions as a list literal, e.g. ['X', 'Y'].
func (a ActorRegions) RegionsLiteral() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range a.Regions {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteListItem(r))
	}
	b.WriteByte(']')
	return b.String()
}

// quoteListItem quotes s the way a Python list repr does: single quotes unless
// s contains a single quote and no double quote.
func quoteListItem(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

type groupKey struct {
	country, month, actor string
}

// Aggregate removes exact duplicate rows of a unified table, then groups by
// (country, event_month, actor) in first-appearance order.
func Aggregate(t *table.Table) ([]ActorRegions, error) {
	idx, err := t.RequireColumns(UnifiedColumns...)
	if err != nil {
		return nil, err
	}

	type rowKey struct {
		groupKey
		region string
	}
	seen := make(map[rowKey]struct{}, t.Len())
	groups := make(map[groupKey]int)
	var out []ActorRegions

	for _, r := range t.Rows {
		cells := make([]table.Value, len(idx))
		for i, pos := range idx {
			cells[i] = r.Values[pos]
		}
		if anyMissing(cells) {
			continue
		}

		gk := groupKey{cells[0].String(), cells[1].String(), cells[2].String()}
		rk := rowKey{gk, cells[3].String()}
		if _, dup := seen[rk]; dup {
			continue
		}
		seen[rk] = struct{}{}

		pos, ok := groups[gk]
		if !ok {
			pos = len(out)
			groups[gk] = pos
			out = append(out, ActorRegions{Country: gk.country, EventMonth: gk.month, Actor: gk.actor})
		}
		out[pos].Regions = append(out[pos].Regions, rk.region)
	}
	return out, nil
}

// SummaryTable converts aggregated groups into a table with UnifiedColumns.
func SummaryTable(groups []ActorRegions) *table.Table {
	out := table.New(UnifiedColumns...)
	for _, g := range groups {
		// Four values for four columns cannot fail.
		_ = out.Append(
			table.String(g.Country),
			table.String(g.EventMonth),
			table.String(g.Actor),
			table.String(g.RegionsLiteral()),
		)
	}
	return out
}

// Aggregator is the filter module form of Aggregate.
type Aggregator struct {
	groups []ActorRegions
}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Groups returns the typed result of the last Process call.
func (a *Aggregator) Groups() []ActorRegions {
	return a.groups
}

// Process aggregates t into the summary table.
func (a *Aggregator) Process(_ context.Context, t *table.Table) (*table.Table, error) {
	groups, err := Aggregate(t)
	if err != nil {
		return nil, err
	}
	a.groups = groups

	logger.Debug("actors aggregated",
		slog.Int("input_count", t.Len()),
		slog.Int("record_count", len(groups)),
	)
	return SummaryTable(groups), nil
}

// Verify Aggregator implements Module
var _ Module = (*Aggregator)(nil)
