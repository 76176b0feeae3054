// Package filter provides implementations for filter modules.
// Filter modules select, derive and reshape the event table between input and output.
package filter

import (
	"context"

	"github.com/actorwatch/runtime/internal/table"
)

// Module represents a filter module that transforms a table.
type Module interface {
	// Process returns the transformed table. An empty table is a valid result.
	Process(ctx context.Context, t *table.Table) (*table.Table, error)
}

// Sink receives an intermediate table (for example the filtered event table).
// output.Module satisfies it.
type Sink interface {
	Send(ctx context.Context, t *table.Table) (int, error)
}
