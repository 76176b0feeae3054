package filter

import (
	"context"
	"reflect"
	"testing"

	"github.com/actorwatch/runtime/internal/table"
)

var eventColumns = []string{
	"event_date", "event_type", "country", "admin1",
	"actor1", "actor2", "assoc_actor_1", "assoc_actor_2",
}

// events builds an event table from rows of raw fields; "" is a missing cell.
func events(t *testing.T, rows ...[]string) *table.Table {
	t.Helper()
	tbl := table.New(eventColumns...)
	for _, r := range rows {
		if err := tbl.AppendStrings(r...); err != nil {
			t.Fatalf("AppendStrings failed: %v", err)
		}
	}
	return tbl
}

// column returns the text of every cell in the named column; missing cells are "<nil>".
func column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	idx, err := tbl.ColumnIndex(name)
	if err != nil {
		t.Fatalf("ColumnIndex(%q) error = %v", name, err)
	}
	out := make([]string, tbl.Len())
	for i, r := range tbl.Rows {
		if r.Values[idx].IsMissing() {
			out[i] = "<nil>"
			continue
		}
		out[i] = r.Values[idx].String()
	}
	return out
}

// recordingSink captures what a tee receives.
type recordingSink struct {
	got   *table.Table
	calls int
	err   error
}

func (s *recordingSink) Send(_ context.Context, t *table.Table) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.got = t
	return t.Len(), nil
}

func assertStrings(t *testing.T, label string, got, want []string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}
