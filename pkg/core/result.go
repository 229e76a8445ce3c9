package core

import (
	"fmt"
)

// Result is the normalized tabular output of a query. Every row is
// positionally aligned to Columns. A Result is never mutated after it is
// built.
type Result struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the result has no rows.
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (r *Result) ColumnIndex(name string) int {
	if r == nil {
		return -1
	}
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the value at row i for the named column.
func (r *Result) Value(i int, column string) (any, bool) {
	idx := r.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= r.Len() {
		return nil, false
	}
	return r.Rows[i][idx], true
}

// Maps returns the rows as column-keyed maps, in row order.
func (r *Result) Maps() []map[string]any {
	if r == nil {
		return nil
	}
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			m[c] = row[j]
		}
		out[i] = m
	}
	return out
}

func toString(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
