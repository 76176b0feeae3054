// Package table provides the in-memory tabular model that flows between pipeline stages.
//
// A Table owns ordered column names and rows of cells. Every row remembers its
// position in the source table so writers can emit the original row index after
// filtering. A cell is either present or missing; readers map empty source fields
// to missing so that stages can drop or skip them explicitly.
package table

import (
	"fmt"

	"github.com/actorwatch/runtime/internal/errhandling"
)

// Value is a single cell. The zero value is missing.
type Value struct {
	s     string
	valid bool
}

// String returns a present cell holding s.
func String(s string) Value {
	return Value{s: s, valid: true}
}

// Missing returns a missing cell.
func Missing() Value {
	return Value{}
}

// FromField converts a raw source field into a cell; the empty string is missing.
func FromField(s string) Value {
	if s == "" {
		return Missing()
	}
	return String(s)
}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool {
	return !v.valid
}

// String returns the cell text, or "" when missing.
func (v Value) String() string {
	return v.s
}

// Any returns the cell as an interface value, nil when missing.
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	return v.s
}

// Row is one record of a table.
type Row struct {
	// Index is the row position in the table the data was first read into.
	Index  int
	Values []Value
}

// Table is an ordered set of named columns and rows aligned with them.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row. Its index is its position in the table.
// Short rows are padded with missing cells; extra values are an error.
func (t *Table) Append(values ...Value) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("row has %d values for %d columns", len(values), len(t.Columns))
	}
	row := make([]Value, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, Row{Index: len(t.Rows), Values: row})
	return nil
}

// AppendStrings adds a row of raw fields, converting empty fields to missing.
func (t *Table) AppendStrings(fields ...string) error {
	values := make([]Value, len(fields))
	for i, f := range fields {
		values[i] = FromField(f)
	}
	return t.Append(values...)
}

// ColumnIndex returns the position of the named column, or a schema error.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, errhandling.NewSchemaError(name)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

// RequireColumns returns the positions of all named columns, failing on the first absent one.
func (t *Table) RequireColumns(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[i] = pos
	}
	return idx, nil
}

// Get returns the cell at row i in the named column.
func (t *Table) Get(i int, column string) (Value, error) {
	pos, err := t.ColumnIndex(column)
	if err != nil {
		return Value{}, err
	}
	return t.Rows[i].Values[pos], nil
}

// Filter returns a new table holding the rows for which keep returns true.
// Row order and indexes are preserved; rows are shared with the receiver.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.Columns...)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// InsertColumn inserts a column at pos with one value per row.
// If the column already exists its values are replaced in place.
func (t *Table) InsertColumn(pos int, name string, values []Value) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	if existing, err := t.ColumnIndex(name); err == nil {
		for i := range t.Rows {
			t.Rows[i].Values[existing] = values[i]
		}
		return nil
	}
	if pos < 0 || pos > len(t.Columns) {
		return fmt.Errorf("column position %d out of range [0,%d]", pos, len(t.Columns))
	}

	t.Columns = insertAt(t.Columns, pos, name)
	for i := range t.Rows {
		t.Rows[i].Values = insertAt(t.Rows[i].Values, pos, values[i])
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		values := make([]Value, len(r.Values))
		copy(values, r.Values)
		out.Rows[i] = Row{Index: r.Index, Values: values}
	}
	return out
}

// Record returns row i as a column-name keyed map, missing cells as nil.
func (t *Table) Record(i int) map[string]any {
	rec := make(map[string]any, len(t.Columns))
	for pos, c := range t.Columns {
		rec[c] = t.Rows[i].Values[pos].Any()
	}
	return rec
}

func insertAt[T any](s []T, pos int, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:pos]...)
	out = append(out, v)
	return append(out, s[pos:]...)
}
