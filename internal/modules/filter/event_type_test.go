package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/actorwatch/runtime/internal/errhandling"
	"github.com/actorwatch/runtime/internal/table"
	"github.com/actorwatch/runtime/pkg/connector"
)

func sampleEvents(t *testing.T) *table.Table {
	return events(t,
		[]string{"01 May 2021", "Battles", "CountryA", "X", "Alpha", "", "", ""},
		[]string{"15 May 2021", "Protests", "CountryA", "Y", "Beta", "", "", ""},
		[]string{"20 May 2021", "Explosions/Remote violence", "CountryB", "Z", "Gamma", "", "", ""},
		[]string{"21 May 2021", "", "CountryB", "Z", "Delta", "", "", ""},
		[]string{"22 May 2021", "battles", "CountryB", "Z", "Eps", "", "", ""},
	)
}

func TestEventTypeFilter_Process(t *testing.T) {
	tee := &recordingSink{}
	f, err := NewEventTypeFilter(connector.DefaultEventTypes, "", tee)
	if err != nil {
		t.Fatalf("NewEventTypeFilter() error = %v", err)
	}

	out, err := f.Process(context.Background(), sampleEvents(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	assertStrings(t, "actor1", column(t, out, "actor1"), []string{"Alpha", "Gamma"})
	if out.Rows[0].Index != 0 || out.Rows[1].Index != 2 {
		t.Errorf("source indexes = %d,%d, want 0,2", out.Rows[0].Index, out.Rows[1].Index)
	}
	if tee.calls != 1 || tee.got.Len() != 2 {
		t.Errorf("tee got %d calls, %d rows", tee.calls, tee.got.Len())
	}
}

func TestEventTypeFilter_Idempotent(t *testing.T) {
	f, _ := NewEventTypeFilter(connector.DefaultEventTypes, "", nil)

	once, err := f.Process(context.Background(), sampleEvents(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	twice, err := f.Process(context.Background(), once)
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}

	assertStrings(t, "event_type", column(t, twice, "event_type"), column(t, once, "event_type"))
	for i := range once.Rows {
		if once.Rows[i].Index != twice.Rows[i].Index {
			t.Errorf("row %d index changed: %d -> %d", i, once.Rows[i].Index, twice.Rows[i].Index)
		}
	}
}

func TestEventTypeFilter_Where(t *testing.T) {
	f, err := NewEventTypeFilter(connector.DefaultEventTypes, `country == "CountryB"`, nil)
	if err != nil {
		t.Fatalf("NewEventTypeFilter() error = %v", err)
	}

	out, err := f.Process(context.Background(), sampleEvents(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	assertStrings(t, "actor1", column(t, out, "actor1"), []string{"Gamma"})
}

func TestEventTypeFilter_WhereSeesMissingAsNil(t *testing.T) {
	f, _ := NewEventTypeFilter(connector.DefaultEventTypes, `actor2 == nil`, nil)

	out, err := f.Process(context.Background(), sampleEvents(t))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Len() != 2 {
		t.Errorf("Len() = %d, want 2", out.Len())
	}
}

func TestEventTypeFilter_Errors(t *testing.T) {
	t.Run("invalid where", func(t *testing.T) {
		_, err := NewEventTypeFilter(connector.DefaultEventTypes, `country ==`, nil)
		if !errhandling.IsCategory(err, errhandling.CategoryConfig) {
			t.Errorf("error = %v, want config category", err)
		}
		if !errors.Is(err, ErrInvalidExpression) {
			t.Errorf("error = %v, want ErrInvalidExpression", err)
		}
	})

	t.Run("missing event_type column", func(t *testing.T) {
		f, _ := NewEventTypeFilter(connector.DefaultEventTypes, "", nil)
		_, err := f.Process(context.Background(), table.New("event_date", "country"))
		if !errhandling.IsCategory(err, errhandling.CategorySchema) {
			t.Errorf("error = %v, want schema category", err)
		}
	})

	t.Run("tee failure is fatal", func(t *testing.T) {
		tee := &recordingSink{err: errhandling.NewIOError("disk full", nil)}
		f, _ := NewEventTypeFilter(connector.DefaultEventTypes, "", tee)
		_, err := f.Process(context.Background(), sampleEvents(t))
		if !errhandling.IsCategory(err, errhandling.CategoryIO) {
			t.Errorf("error = %v, want io category", err)
		}
	})
}

func TestEventTypeFilter_EmptyTable(t *testing.T) {
	f, _ := NewEventTypeFilter(connector.DefaultEventTypes, "", nil)
	out, err := f.Process(context.Background(), table.New(eventColumns...))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Len() != 0 || len(out.Columns) != len(eventColumns) {
		t.Errorf("empty input should give an empty table with the same columns")
	}
}

func TestCondition(t *testing.T) {
	tests := []struct {
		expression string
		env        map[string]any
		want       bool
		wantErr    bool
	}{
		{"", nil, true, false},
		{"  ", nil, true, false},
		{`status == "active"`, map[string]any{"status": "active"}, true, false},
		{`status == "active"`, map[string]any{"status": "closed"}, false, false},
		{`status == "active"`, map[string]any{}, false, false},
		{`x in ["a", "b"]`, map[string]any{"x": "b"}, true, false},
		{`len(name) > 3`, map[string]any{"name": 42}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			c, err := NewCondition(tt.expression)
			if err != nil {
				t.Fatalf("NewCondition() error = %v", err)
			}
			got, err := c.Match(tt.env, 4)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Match() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var condErr *ConditionError
				if !errors.As(err, &condErr) || condErr.RecordIndex != 4 || condErr.Code != ErrCodeEvaluationFailed {
					t.Errorf("error = %#v, want ConditionError for record 4", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
