package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// Column names of the event table used by the filters.
const (
	ColumnEventType  = "event_type"
	ColumnEventDate  = "event_date"
	ColumnEventMonth = "event_month"
	ColumnCountry    = "country"
	ColumnAdmin1     = "admin1"
	ColumnActor1     = "actor1"
	ColumnActor2     = "actor2"
	ColumnAssoc1     = "assoc_actor_1"
	ColumnAssoc2     = "assoc_actor_2"
)

// allowListVar is the expression variable holding the event-type allow-list.
const allowListVar = "eventTypes"

// EventTypeFilter keeps the rows whose event_type is in an allow-list and,
// optionally, satisfies an extra `where` expression.
//
// The kept rows are also handed to Tee (when set) before they flow on, so the
// filtered event table is persisted even if a later stage fails.
type EventTypeFilter struct {
	eventTypes []string
	condition  *Condition
	tee        Sink
}

// NewEventTypeFilter compiles the allow-list predicate, AND-ed with where when non-blank.
func NewEventTypeFilter(eventTypes []string, where string, tee Sink) (*EventTypeFilter, error) {
	expression := ColumnEventType + " in " + allowListVar
	if w := strings.TrimSpace(where); w != "" {
		expression = fmt.Sprintf("(%s) && (%s)", expression, w)
	}

	condition, err := NewCondition(expression)
	if err != nil {
		return nil, errhandling.NewConfigError("invalid where expression", err)
	}

	allowed := make([]string, len(eventTypes))
	copy(allowed, eventTypes)

	logger.Debug("event type filter initialized",
		slog.Any("event_types", allowed),
		slog.String("expression", expression),
		slog.Bool("has_tee", tee != nil),
	)

	return &EventTypeFilter{eventTypes: allowed, condition: condition, tee: tee}, nil
}

// Process filters t. The result keeps row order and source indexes.
func (f *EventTypeFilter) Process(ctx context.Context, t *table.Table) (*table.Table, error) {
	start := time.Now()
	if _, err := t.ColumnIndex(ColumnEventType); err != nil {
		return nil, err
	}

	allowList := make([]any, len(f.eventTypes))
	for i, e := range f.eventTypes {
		allowList[i] = e
	}

	var evalErr error
	out := t.Filter(func(r table.Row) bool {
		if evalErr != nil {
			return false
		}
		env := rowEnv(t.Columns, r)
		env[allowListVar] = allowList
		ok, err := f.condition.Match(env, r.Index)
		if err != nil {
			evalErr = err
			return false
		}
		return ok
	})
	if evalErr != nil {
		return nil, errhandling.NewParseError("evaluating event filter", evalErr)
	}

	logger.Debug("event types filtered",
		slog.Int("input_count", t.Len()),
		slog.Int("record_count", out.Len()),
		slog.Duration("duration", time.Since(start)),
	)

	if f.tee != nil {
		if _, err := f.tee.Send(ctx, out); err != nil {
			return nil, fmt.Errorf("writing filtered events: %w", err)
		}
	}
	return out, nil
}

// rowEnv maps column names to cell values; missing cells are nil.
func rowEnv(columns []string, r table.Row) map[string]any {
	env := make(map[string]any, len(columns)+1)
	for i, c := range columns {
		env[c] = r.Values[i].Any()
	}
	return env
}

// Verify EventTypeFilter implements Module
var _ Module = (*EventTypeFilter)(nil)
