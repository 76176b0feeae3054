package filter

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/actorwatch/runtime/internal/period"
	"github.com/actorwatch/runtime/pkg/connector"
)

// Three events, two of them kept, collapse to one actor with two regions.
func TestChain_EndToEnd(t *testing.T) {
	in := events(t,
		[]string{"2021-05-01", "Battles", "CountryA", "X", "Alpha", "", "", ""},
		[]string{"2021-05-15", "Explosions/Remote violence", "CountryA", "Y", "Alpha", "", "", ""},
		[]string{"2021-05-20", "Protests", "CountryA", "Z", "Beta", "", "", ""},
	)

	tee := &recordingSink{}
	eventFilter, err := NewEventTypeFilter(connector.DefaultEventTypes, "", tee)
	if err != nil {
		t.Fatalf("NewEventTypeFilter() error = %v", err)
	}
	aggregator := NewAggregator()
	chain := []Module{
		eventFilter,
		NewMonthDeriver(),
		NewPeriodFilter(period.Fixed{Year: "2021", Month: "5"}, io.Discard, ".", connector.DefaultEventTypes),
		NewActorUnifier(),
		aggregator,
	}

	ctx := context.Background()
	current := in
	for i, m := range chain {
		current, err = m.Process(ctx, current)
		if err != nil {
			t.Fatalf("stage %d: Process() error = %v", i, err)
		}
		switch i {
		case 0:
			assertStrings(t, "kept actors", column(t, current, "actor1"), []string{"Alpha", "Alpha"})
		case 1:
			assertStrings(t, "event_month", column(t, current, ColumnEventMonth), []string{"2021-05", "2021-05"})
		case 2:
			if current.Len() != 2 {
				t.Errorf("period selection kept %d rows, want 2", current.Len())
			}
		case 3:
			assertStrings(t, "unified regions", column(t, current, ColumnRegions), []string{"X", "Y"})
		}
	}

	want := []ActorRegions{{Country: "CountryA", EventMonth: "2021-05", Actor: "Alpha", Regions: []string{"X", "Y"}}}
	if !reflect.DeepEqual(aggregator.Groups(), want) {
		t.Errorf("Groups() = %+v, want %+v", aggregator.Groups(), want)
	}
	assertStrings(t, "summary regions", column(t, current, ColumnRegions), []string{"['X', 'Y']"})

	if tee.got == nil || tee.got.Len() != 2 {
		t.Errorf("filtered events were not persisted")
	}
}
