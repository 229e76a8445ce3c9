// Package rebuild changes a table's primary key by recreating the table.
//
// Kudu cannot alter a primary key in place. A rebuild creates a shadow
// table <t>_redefined with the new key, renames <t> to <t>_temp, promotes
// the shadow to <t>, copies rows back and drops <t>_temp. The steps are
// rendered up front into a Plan and the position after every applied
// statement is recorded in a Journal, so an interrupted rebuild can be
// reported precisely and resumed without repeating a statement.
package rebuild

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/kudusql/pkg/ddl"
	"github.com/leapstack-labs/kudusql/pkg/schema"
)

// Table name suffixes used during a rebuild.
const (
	RedefinedSuffix = "_redefined"
	TempSuffix      = "_temp"
)

// Kind identifies the rebuild variant.
type Kind string

// Rebuild kinds.
const (
	KindAddPrimaryKey  Kind = "add_primary_key"
	KindDropPrimaryKey Kind = "drop_primary_key"
)

// Step is one named unit of a rebuild. Its statements run in order.
type Step struct {
	Name       string   `json:"name"`
	Statements []string `json:"statements"`
}

// Plan is a fully rendered rebuild.
type Plan struct {
	ID        string    `json:"id"`
	Table     string    `json:"table"`
	Column    string    `json:"column"`
	Kind      Kind      `json:"kind"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// RedefinedName returns the shadow table name for table.
func RedefinedName(table string) string { return table + RedefinedSuffix }

// TempName returns the name the original table is parked under.
func TempName(table string) string { return table + TempSuffix }

// Planner renders rebuild plans.
type Planner struct {
	gen *ddl.Generator
}

// NewPlanner creates a planner rendering through gen.
func NewPlanner(gen *ddl.Generator) *Planner {
	return &Planner{gen: gen}
}

// PlanOption adjusts how a plan renders its shadow table.
type PlanOption func(*planSettings)

type planSettings struct {
	partitions int
}

// WithPartitions gives the shadow table n hash partitions, normally the
// count read back from the original table. Zero or less keeps the dialect
// default.
func WithPartitions(n int) PlanOption {
	return func(s *planSettings) { s.partitions = n }
}

func applyPlanOptions(opts []PlanOption) planSettings {
	var s planSettings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// AddPrimaryKey plans adding col to the primary key of table, whose
// current columns are current. The new key is the existing key columns
// followed by col; the remaining columns follow in their current order.
//
// When col carries a default, the rows of the old table are copied with
// that default filled in and the old table is dropped. Without a default
// the old table is left as <table>_temp for a later ReloadTableData.
func (p *Planner) AddPrimaryKey(table string, current []schema.ColumnDefinition, col schema.ColumnDefinition, opts ...PlanOption) (*Plan, error) {
	col.PrimaryKey = true
	col.NotNull = true

	redefined := schema.NewTable(RedefinedName(table))
	var keys, copyCols []string
	for _, c := range current {
		if c.PrimaryKey {
			redefined.AddColumn(shadowColumn(c))
			keys = append(keys, c.Name)
		}
	}
	redefined.AddColumn(col)
	keys = append(keys, col.Name)
	for _, c := range current {
		if !c.PrimaryKey {
			redefined.AddColumn(shadowColumn(c))
		}
	}
	for _, c := range current {
		copyCols = append(copyCols, c.Name)
	}
	redefined.SetPrimaryKeys(keys...)

	plan, err := p.basePlan(KindAddPrimaryKey, table, col.Name, redefined, applyPlanOptions(opts))
	if err != nil {
		return nil, err
	}

	if col.HasDefault {
		copyStmt, err := p.gen.RenderInsertSelect(ddl.CopySpec{
			Target:  table,
			Source:  TempName(table),
			Columns: copyCols,
			Extra:   []ddl.ExtraColumn{{Name: col.Name, Value: col.Default, Type: col.Type}},
		})
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps,
			Step{Name: "copy_rows", Statements: []string{copyStmt}},
			Step{Name: "drop_temp", Statements: []string{p.gen.RenderDropTable(TempName(table), false)}},
		)
	}
	return plan, nil
}

// DropPrimaryKey plans removing column from table. Every other column is
// kept with its current attributes and copied back.
func (p *Planner) DropPrimaryKey(table string, current []schema.ColumnDefinition, column string, opts ...PlanOption) (*Plan, error) {
	redefined := schema.NewTable(RedefinedName(table))
	var keep []string
	found := false
	for _, c := range current {
		if c.Name == column {
			found = true
			continue
		}
		redefined.AddColumn(shadowColumn(c))
		keep = append(keep, c.Name)
	}
	if !found {
		return nil, fmt.Errorf("column %s does not exist on table %s", column, table)
	}

	plan, err := p.basePlan(KindDropPrimaryKey, table, column, redefined, applyPlanOptions(opts))
	if err != nil {
		return nil, err
	}

	copyStmt, err := p.gen.RenderInsertSelect(ddl.CopySpec{Target: table, Source: TempName(table), Columns: keep})
	if err != nil {
		return nil, err
	}
	plan.Steps = append(plan.Steps,
		Step{Name: "copy_rows", Statements: []string{copyStmt}},
		Step{Name: "drop_temp", Statements: []string{p.gen.RenderDropTable(TempName(table), false)}},
	)
	return plan, nil
}

// basePlan renders the create-and-swap steps shared by every rebuild. The
// shadow table is hash partitioned on its new key; only the bucket count
// carries over from the original table.
func (p *Planner) basePlan(kind Kind, table, column string, redefined *schema.TableDefinition, s planSettings) (*Plan, error) {
	if s.partitions > 0 {
		redefined.PartitionsCount = s.partitions
	}
	create, err := p.gen.RenderCreate(redefined)
	if err != nil {
		return nil, fmt.Errorf("failed to render shadow table for %s: %w", table, err)
	}

	return &Plan{
		ID:     uuid.NewString(),
		Table:  table,
		Column: column,
		Kind:   kind,
		Steps: []Step{
			{Name: "create_redefined", Statements: []string{create}},
			{Name: "park_original", Statements: p.renameStatements(table, TempName(table))},
			{Name: "promote_redefined", Statements: p.renameStatements(RedefinedName(table), table)},
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (p *Planner) renameStatements(from, to string) []string {
	stmts := []string{p.gen.RenderRenameTable(from, to)}
	if sync, ok := p.gen.RenderSetKuduTableName(to); ok {
		stmts = append(stmts, sync)
	}
	return stmts
}

// shadowColumn copies an introspected column for the shadow table. The
// engine-reported SQL type is dropped so the logical type renders.
func shadowColumn(c schema.ColumnDefinition) schema.ColumnDefinition {
	c.SQLType = ""
	if c.PrimaryKey {
		c.NotNull = true
	}
	return c
}
