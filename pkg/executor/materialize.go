package executor

import (
	"fmt"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// Materialize turns ordered field maps into a Result. The first row's key
// order is the column order; later rows are projected through it by name,
// and keys they lack become nil. Zero rows give zero columns.
func Materialize(rows []core.Row) *core.Result {
	if len(rows) == 0 {
		return &core.Result{Columns: []string{}, Rows: [][]any{}}
	}

	columns := rows[0].Keys()
	out := make([][]any, len(rows))
	for i, row := range rows {
		values := make([]any, len(columns))
		for j, c := range columns {
			v, _ := row.Get(c)
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			values[j] = v
		}
		out[i] = values
	}
	return &core.Result{Columns: columns, Rows: out}
}

// CastResult returns a copy of res with the listed columns converted
// through reg.
func CastResult(res *core.Result, columnTypes map[string]types.Type, reg *types.Registry) (*core.Result, error) {
	if len(columnTypes) == 0 || res.Empty() {
		return res, nil
	}

	out := &core.Result{Columns: res.Columns, Rows: make([][]any, len(res.Rows))}
	for i, row := range res.Rows {
		values := append([]any(nil), row...)
		for j, c := range res.Columns {
			t, ok := columnTypes[c]
			if !ok {
				continue
			}
			v, err := reg.Cast(t, values[j])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, c, err)
			}
			values[j] = v
		}
		out.Rows[i] = values
	}
	return out, nil
}
