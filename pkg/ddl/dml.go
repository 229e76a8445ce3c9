package ddl

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// ExtraColumn is a column filled with a constant during a table copy.
type ExtraColumn struct {
	Name  string
	Value any
	Type  types.Type
}

// CopySpec describes a column-wise INSERT ... SELECT between two tables.
type CopySpec struct {
	Target  string
	Source  string
	Columns []string
	Extra   []ExtraColumn
}

// RenderInsertSelect renders
//
//	INSERT INTO target (cols, extra) SELECT cols, <value> AS extra FROM source
func (g *Generator) RenderInsertSelect(spec CopySpec) (string, error) {
	if len(spec.Columns) == 0 && len(spec.Extra) == 0 {
		return "", fmt.Errorf("copy from %s to %s has no columns", spec.Source, spec.Target)
	}

	targetCols := make([]string, 0, len(spec.Columns)+len(spec.Extra))
	selectCols := make([]string, 0, len(spec.Columns)+len(spec.Extra))
	for _, c := range spec.Columns {
		targetCols = append(targetCols, dialect.QuoteIdentifier(c))
		selectCols = append(selectCols, dialect.QuoteIdentifier(c))
	}
	for _, e := range spec.Extra {
		lit, err := dialect.QuoteDefault(e.Value, e.Type, g.d.Types())
		if err != nil {
			return "", fmt.Errorf("column %s: %w", e.Name, err)
		}
		targetCols = append(targetCols, dialect.QuoteIdentifier(e.Name))
		selectCols = append(selectCols, lit+" AS "+dialect.QuoteIdentifier(e.Name))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		dialect.QuoteTableName(spec.Target),
		strings.Join(targetCols, ", "),
		strings.Join(selectCols, ", "),
		dialect.QuoteTableName(spec.Source)), nil
}

// RenderInsertValues renders a single INSERT with one VALUES tuple per row.
func (g *Generator) RenderInsertValues(table string, columns []string, rows [][]any) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("insert into %s has no rows", table)
	}

	tuples := make([]string, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", fmt.Errorf("insert into %s: row %d has %d values for %d columns", table, i+1, len(row), len(columns))
		}
		lits := make([]string, len(row))
		for j, v := range row {
			lit, err := dialect.QuoteLiteral(v)
			if err != nil {
				return "", fmt.Errorf("insert into %s: row %d: %w", table, i+1, err)
			}
			lits[j] = lit
		}
		tuples[i] = "(" + strings.Join(lits, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		dialect.QuoteTableName(table), joinIdentifiers(columns), strings.Join(tuples, ", ")), nil
}
