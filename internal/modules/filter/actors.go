package filter

import (
	"context"
	"log/slog"

	"github.com/actorwatch/runtime/internal/logger"
	"github.com/actorwatch/runtime/internal/table"
)

// ColumnActor and ColumnRegions are the unified columns.
const (
	ColumnActor   = "actor"
	ColumnRegions = "regions"
)

// ActorRoles are the actor columns unified into one, in per-row emission order.
var ActorRoles = []string{ColumnActor1, ColumnActor2, ColumnAssoc1, ColumnAssoc2}

// UnifiedColumns is the schema produced by ActorUnifier and Aggregator.
var UnifiedColumns = []string{ColumnCountry, ColumnEventMonth, ColumnActor, ColumnRegions}

// ActorUnifier turns each event row into one row per actor role.
//
// Rows are visited once, in source order, and each emits up to four candidates
// in ActorRoles order. A candidate with any missing cell is dropped.
// admin1 becomes regions.
type ActorUnifier struct{}

// NewActorUnifier creates an actor unifier.
func NewActorUnifier() *ActorUnifier {
	return &ActorUnifier{}
}

// Process unifies the actor columns of t.
func (u *ActorUnifier) Process(_ context.Context, t *table.Table) (*table.Table, error) {
	base, err := t.RequireColumns(ColumnCountry, ColumnEventMonth, ColumnAdmin1)
	if err != nil {
		return nil, err
	}
	roles, err := t.RequireColumns(ActorRoles...)
	if err != nil {
		return nil, err
	}
	countryIdx, monthIdx, regionIdx := base[0], base[1], base[2]

	out := table.New(UnifiedColumns...)
	dropped := 0
	for _, r := range t.Rows {
		for _, roleIdx := range roles {
			values := []table.Value{r.Values[countryIdx], r.Values[monthIdx], r.Values[roleIdx], r.Values[regionIdx]}
			if anyMissing(values) {
				dropped++
				continue
			}
			if err := out.Append(values...); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("actors unified",
		slog.Int("input_count", t.Len()),
		slog.Int("record_count", out.Len()),
		slog.Int("dropped_count", dropped),
	)
	return out, nil
}

func anyMissing(values []table.Value) bool {
	for _, v := range values {
		if v.IsMissing() {
			return true
		}
	}
	return false
}

// Verify ActorUnifier implements Module
var _ Module = (*ActorUnifier)(nil)
