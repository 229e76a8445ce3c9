package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.uber.org/multierr"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/ddl"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/executor"
	"github.com/leapstack-labs/kudusql/pkg/introspect"
	"github.com/leapstack-labs/kudusql/pkg/migration"
	"github.com/leapstack-labs/kudusql/pkg/rebuild"
	"github.com/leapstack-labs/kudusql/pkg/schema"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// DefaultPrimaryKey is the implicit primary-key column name.
const DefaultPrimaryKey = "id"

// Options configure a Kudu adapter.
type Options struct {
	// Dialect defaults to dialect.Kudu().
	Dialect *dialect.Dialect

	// Connector opens engine clients. Defaults to SQLConnector.
	Connector core.Connector

	// Journal persists rebuild progress. Defaults to an in-memory journal.
	Journal rebuild.Journal

	Logger *slog.Logger
}

// Kudu is the Adapter implementation for Impala over Kudu.
type Kudu struct {
	dialect    *dialect.Dialect
	exec       *executor.Executor
	gen        *ddl.Generator
	inspect    *introspect.Introspector
	migrations *migration.Bookkeeper
	planner    *rebuild.Planner
	runner     *rebuild.Runner
	logger     *slog.Logger
}

var _ Adapter = (*Kudu)(nil)

// New wires a Kudu adapter. It does not connect.
func New(cfg core.AdapterConfig, opts Options) *Kudu {
	d := opts.Dialect
	if d == nil {
		d = dialect.Kudu()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	connect := opts.Connector
	if connect == nil {
		connect = SQLConnector(logger)
	}

	exec := executor.New(connect, cfg, d, logger)
	gen := ddl.New(d)
	inspect := introspect.New(exec, d.Types(), logger)

	return &Kudu{
		dialect:    d,
		exec:       exec,
		gen:        gen,
		inspect:    inspect,
		migrations: migration.NewBookkeeper(exec, inspect, gen, logger),
		planner:    rebuild.NewPlanner(gen),
		runner:     rebuild.NewRunner(exec, opts.Journal, logger),
		logger:     logger,
	}
}

// Dialect implements Adapter.
func (k *Kudu) Dialect() *dialect.Dialect { return k.dialect }

// Generator returns the DDL generator.
func (k *Kudu) Generator() *ddl.Generator { return k.gen }

// Connect implements Connection.
func (k *Kudu) Connect(ctx context.Context) error { return k.exec.Connect(ctx) }

// Disconnect implements Connection.
func (k *Kudu) Disconnect() error { return k.exec.Disconnect() }

// Reconnect implements Connection.
func (k *Kudu) Reconnect(ctx context.Context) error { return k.exec.Reconnect(ctx) }

// IsConnected implements Connection.
func (k *Kudu) IsConnected() bool { return k.exec.IsConnected() }

// Execute implements Statements.
func (k *Kudu) Execute(ctx context.Context, sql string) error { return k.exec.Execute(ctx, sql) }

// Query implements Statements.
func (k *Kudu) Query(ctx context.Context, sql string) (*core.Result, error) {
	return k.exec.Query(ctx, sql)
}

// ExecQuery implements Statements.
func (k *Kudu) ExecQuery(ctx context.Context, sql string, binds ...any) (*core.Result, error) {
	return k.exec.ExecQuery(ctx, sql, binds...)
}

// ExecInsert implements Statements.
func (k *Kudu) ExecInsert(ctx context.Context, sql string, binds ...any) (int64, error) {
	return k.exec.ExecInsert(ctx, sql, binds...)
}

// ExecUpdate implements Statements.
func (k *Kudu) ExecUpdate(ctx context.Context, sql string, binds ...any) (int64, error) {
	return k.exec.ExecUpdate(ctx, sql, binds...)
}

// ExecDelete implements Statements.
func (k *Kudu) ExecDelete(ctx context.Context, sql string, binds ...any) (int64, error) {
	return k.exec.ExecDelete(ctx, sql, binds...)
}

// QueryTyped implements Statements.
func (k *Kudu) QueryTyped(ctx context.Context, sql string, columnTypes map[string]types.Type) (*core.Result, error) {
	return k.exec.QueryTyped(ctx, sql, columnTypes)
}

// Tables implements SchemaReader.
func (k *Kudu) Tables(ctx context.Context) ([]string, error) { return k.inspect.Tables(ctx) }

// TableExists implements SchemaReader.
func (k *Kudu) TableExists(ctx context.Context, table string) (bool, error) {
	return k.inspect.TableExists(ctx, table)
}

// Views implements SchemaReader.
func (k *Kudu) Views(ctx context.Context) ([]string, error) { return k.inspect.Views(ctx) }

// ViewExists implements SchemaReader.
func (k *Kudu) ViewExists(ctx context.Context, view string) (bool, error) {
	return k.inspect.ViewExists(ctx, view)
}

// Indexes implements SchemaReader.
func (k *Kudu) Indexes(ctx context.Context, table string) ([]string, error) {
	return k.inspect.Indexes(ctx, table)
}

// Columns implements SchemaReader.
func (k *Kudu) Columns(ctx context.Context, table string) ([]schema.ColumnDefinition, error) {
	return k.inspect.DescribeTable(ctx, table)
}

// ColumnExists implements SchemaReader.
func (k *Kudu) ColumnExists(ctx context.Context, table, column string, check introspect.ColumnCheck) (bool, error) {
	return k.inspect.ColumnExists(ctx, table, column, check)
}

// PrimaryKey implements SchemaReader.
func (k *Kudu) PrimaryKey(ctx context.Context, table string) (introspect.PrimaryKey, error) {
	return k.inspect.PrimaryKey(ctx, table)
}

// CreateTable renders and creates td. Tables without a primary key get an
// implicit BIGINT key column unless opts.NoID is set. The statement is
// rendered before anything is sent, so Force never drops a table whose
// replacement is invalid.
func (k *Kudu) CreateTable(ctx context.Context, td *schema.TableDefinition, opts CreateTableOptions) error {
	td = withImplicitKey(td, opts)

	stmt, err := k.gen.RenderCreate(td)
	if err != nil {
		return err
	}
	if opts.Force {
		if err := k.DropTable(ctx, td.Name, true); err != nil {
			return err
		}
	}
	if err := k.exec.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", td.Name, err)
	}
	k.logger.Info("created table", slog.String("table", td.Name))
	return nil
}

func withImplicitKey(td *schema.TableDefinition, opts CreateTableOptions) *schema.TableDefinition {
	if opts.NoID || td.External || len(td.ResolvePrimaryKeys()) > 0 {
		return td
	}
	pk := opts.PrimaryKey
	if pk == "" {
		pk = DefaultPrimaryKey
	}

	clone := *td
	if _, ok := td.ColumnByName(pk); ok {
		clone.PrimaryKeys = []string{pk}
		return &clone
	}
	id := schema.NewColumn(pk, types.Of(types.BigInt), schema.PrimaryKey(), schema.NotNull())
	clone.Columns = append([]schema.ColumnDefinition{id}, td.Columns...)
	return &clone
}

// DropTable implements SchemaWriter.
func (k *Kudu) DropTable(ctx context.Context, table string, ifExists bool) error {
	if err := k.exec.Execute(ctx, k.gen.RenderDropTable(table, ifExists)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// RenameTable renames a table and re-points its kudu.table_name property.
func (k *Kudu) RenameTable(ctx context.Context, oldName, newName string) error {
	if err := k.exec.Execute(ctx, k.gen.RenderRenameTable(oldName, newName)); err != nil {
		return fmt.Errorf("failed to rename table %s: %w", oldName, err)
	}
	if stmt, ok := k.gen.RenderSetKuduTableName(newName); ok {
		if err := k.exec.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("failed to update kudu.table_name of %s: %w", newName, err)
		}
	}
	return nil
}

// CreateJoinTable creates a join table keyed by <singular>_id string
// columns of both tables.
func (k *Kudu) CreateJoinTable(ctx context.Context, table1, table2 string, opts JoinTableOptions) error {
	name := opts.TableName
	if name == "" {
		name = JoinTableName(table1, table2)
	}
	td := schema.NewTable(name).
		String(ForeignKeyColumn(table1), schema.PrimaryKey(), schema.NotNull()).
		String(ForeignKeyColumn(table2), schema.PrimaryKey(), schema.NotNull())
	for _, c := range opts.Columns {
		td.AddColumn(c)
	}
	return k.CreateTable(ctx, td, CreateTableOptions{NoID: true, Force: opts.Force})
}

// DropJoinTable drops the join table of table1 and table2.
func (k *Kudu) DropJoinTable(ctx context.Context, table1, table2 string, opts JoinTableOptions) error {
	name := opts.TableName
	if name == "" {
		name = JoinTableName(table1, table2)
	}
	return k.DropTable(ctx, name, false)
}

// DropTempTables drops every table whose name contains the rebuild temp
// suffix. Every table is attempted; failures are combined.
func (k *Kudu) DropTempTables(ctx context.Context) error {
	names, err := k.inspect.Tables(ctx)
	if err != nil {
		return err
	}
	var errs error
	for _, n := range names {
		if !strings.Contains(n, rebuild.TempSuffix) {
			continue
		}
		errs = multierr.Append(errs, k.DropTable(ctx, n, false))
	}
	return errs
}

// AddColumn adds col to table. A primary-key column cannot be added in
// place and triggers a table rebuild instead.
func (k *Kudu) AddColumn(ctx context.Context, table string, col schema.ColumnDefinition) error {
	if col.PrimaryKey {
		current, err := k.inspect.DescribeTable(ctx, table)
		if err != nil {
			return err
		}
		partitions, err := k.inspect.HashPartitions(ctx, table)
		if err != nil {
			return err
		}
		plan, err := k.planner.AddPrimaryKey(table, current, col, rebuild.WithPartitions(partitions))
		if err != nil {
			return err
		}
		return k.runner.Run(ctx, plan)
	}

	stmt, err := k.gen.RenderAlterAddColumn(table, col)
	if err != nil {
		return err
	}
	if err := k.exec.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, col.Name, err)
	}
	return nil
}

// RemoveColumn drops a non-key column. Key columns are refused before any
// ALTER is sent; use DropPrimaryKeyColumn to rebuild the table without one.
func (k *Kudu) RemoveColumn(ctx context.Context, table, column string) error {
	return k.RemoveColumns(ctx, table, column)
}

// RemoveColumns drops columns in order after checking that none of them is
// part of the primary key.
func (k *Kudu) RemoveColumns(ctx context.Context, table string, columns ...string) error {
	if len(columns) == 0 {
		return errors.New("at least one column name is required")
	}
	pk, err := k.inspect.PrimaryKey(ctx, table)
	if err != nil {
		return err
	}
	var errs error
	for _, c := range columns {
		if pk.Contains(c) {
			errs = multierr.Append(errs, &core.PrimaryKeyError{Table: table, Column: c, Op: "drop"})
		}
	}
	if errs != nil {
		return errs
	}

	for _, c := range columns {
		if err := k.exec.Execute(ctx, k.gen.RenderAlterDropColumn(table, c)); err != nil {
			return fmt.Errorf("failed to drop column %s.%s: %w", table, c, err)
		}
	}
	return nil
}

// RenameColumn renames a non-key column, keeping its reported type.
func (k *Kudu) RenameColumn(ctx context.Context, table, oldName, newName string) error {
	rows, err := k.inspect.TableStructure(ctx, table)
	if err != nil {
		return err
	}
	var sqlType string
	for _, r := range rows {
		if r.Name != oldName {
			continue
		}
		if r.PrimaryKey {
			return &core.PrimaryKeyError{Table: table, Column: oldName, Op: "rename"}
		}
		sqlType = strings.ToUpper(r.Type)
	}
	if sqlType == "" {
		return fmt.Errorf("column %s does not exist on table %s", oldName, table)
	}
	if err := k.exec.Execute(ctx, k.gen.RenderRenameColumn(table, oldName, newName, sqlType)); err != nil {
		return fmt.Errorf("failed to rename column %s.%s: %w", table, oldName, err)
	}
	return nil
}

// DropPrimaryKeyColumn rebuilds table without the key column column.
func (k *Kudu) DropPrimaryKeyColumn(ctx context.Context, table, column string) error {
	current, err := k.inspect.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	isKey := false
	for _, c := range current {
		if c.Name == column && c.PrimaryKey {
			isKey = true
		}
	}
	if !isKey {
		return fmt.Errorf("column %s is not part of the primary key of %s", column, table)
	}
	partitions, err := k.inspect.HashPartitions(ctx, table)
	if err != nil {
		return err
	}
	plan, err := k.planner.DropPrimaryKey(table, current, column, rebuild.WithPartitions(partitions))
	if err != nil {
		return err
	}
	return k.runner.Run(ctx, plan)
}

// ReloadTableData copies the rows parked in <table>_temp back into table,
// filling column with value, and drops the temp table.
func (k *Kudu) ReloadTableData(ctx context.Context, table, column string, value any) error {
	current, err := k.inspect.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	var cols []string
	colType := types.Type{}
	found := false
	for _, c := range current {
		if c.Name == column {
			colType = c.Type
			found = true
			continue
		}
		cols = append(cols, c.Name)
	}
	if !found {
		return fmt.Errorf("column %s does not exist on table %s", column, table)
	}
	value, err = k.dialect.Types().Cast(colType, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s.%s: %w", table, column, err)
	}

	stmt, err := k.gen.RenderInsertSelect(ddl.CopySpec{
		Target:  table,
		Source:  rebuild.TempName(table),
		Columns: cols,
		Extra:   []ddl.ExtraColumn{{Name: column, Value: value, Type: colType}},
	})
	if err != nil {
		return err
	}
	if err := k.exec.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("failed to reload %s: %w", table, err)
	}
	return k.DropTable(ctx, rebuild.TempName(table), false)
}

// AddTimestamps adds created_at and updated_at, NOT NULL unless overridden.
func (k *Kudu) AddTimestamps(ctx context.Context, table string, opts ...schema.ColumnOption) error {
	opts = append([]schema.ColumnOption{schema.NotNull()}, opts...)
	for _, name := range []string{"created_at", "updated_at"} {
		if err := k.AddColumn(ctx, table, schema.NewColumn(name, types.Of(types.DateTime), opts...)); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTimestamps drops updated_at and created_at.
func (k *Kudu) RemoveTimestamps(ctx context.Context, table string) error {
	return k.RemoveColumns(ctx, table, "updated_at", "created_at")
}

// ChangeColumn is not supported by the engine.
func (k *Kudu) ChangeColumn(_ context.Context, table, column string, t types.Type) error {
	_, err := k.gen.RenderChangeColumnType(table, column, t.String())
	return err
}

// ChangeColumnDefault is not supported by the engine.
func (k *Kudu) ChangeColumnDefault(_ context.Context, table, column string, value any) error {
	_, err := k.gen.RenderChangeColumnDefault(table, column, value)
	return err
}

// ChangeColumnNull is not supported by the engine.
func (k *Kudu) ChangeColumnNull(_ context.Context, table, column string, nullable bool) error {
	_, err := k.gen.RenderChangeColumnNullability(table, column, nullable)
	return err
}

// AddIndex is not supported by the engine.
func (k *Kudu) AddIndex(_ context.Context, table string, columns ...string) error {
	_, err := k.gen.RenderAddIndex(table, columns)
	return err
}

// RemoveIndex is not supported by the engine.
func (k *Kudu) RemoveIndex(_ context.Context, table, index string) error {
	_, err := k.gen.RenderRemoveIndex(table, index)
	return err
}

// RenameIndex is not supported by the engine.
func (k *Kudu) RenameIndex(_ context.Context, table, oldName, newName string) error {
	_, err := k.gen.RenderRenameIndex(table, oldName, newName)
	return err
}

// IndexExists is not supported by the engine.
func (k *Kudu) IndexExists(context.Context, string, ...string) (bool, error) {
	return false, core.Unsupported("index_exists", "secondary indexes are not supported by kudu")
}

// AddForeignKey is not supported by the engine.
func (k *Kudu) AddForeignKey(_ context.Context, fromTable, toTable string) error {
	_, err := k.gen.RenderAddForeignKey(fromTable, toTable)
	return err
}

// RemoveForeignKey is not supported by the engine.
func (k *Kudu) RemoveForeignKey(_ context.Context, fromTable, toTable string) error {
	_, err := k.gen.RenderRemoveForeignKey(fromTable, toTable)
	return err
}

// TableComment is not supported.
func (k *Kudu) TableComment(context.Context, string) (string, error) {
	return "", core.Unsupported("table_comment", "reading table comments is not supported")
}

// ChangeTableComment is not supported.
func (k *Kudu) ChangeTableComment(_ context.Context, table, comment string) error {
	_, err := k.gen.RenderChangeTableComment(table, comment)
	return err
}

// ChangeColumnComment is not supported.
func (k *Kudu) ChangeColumnComment(_ context.Context, table, column, comment string) error {
	_, err := k.gen.RenderChangeColumnComment(table, column, comment)
	return err
}

// EnsureMigrationsTable implements Migrations.
func (k *Kudu) EnsureMigrationsTable(ctx context.Context) error {
	return k.migrations.EnsureTable(ctx)
}

// AppliedVersions implements Migrations.
func (k *Kudu) AppliedVersions(ctx context.Context) ([]int64, error) {
	return k.migrations.AppliedVersions(ctx)
}

// AssumeMigratedUptoVersion records version and the known versions below
// it as applied.
func (k *Kudu) AssumeMigratedUptoVersion(ctx context.Context, version int64, files []string) error {
	return k.migrations.MarkVersionsApplied(ctx, version, files)
}

// Rebuilds implements Rebuilds.
func (k *Kudu) Rebuilds(ctx context.Context) ([]rebuild.Record, error) {
	return k.runner.Journal().List(ctx)
}

// ResumeRebuild implements Rebuilds.
func (k *Kudu) ResumeRebuild(ctx context.Context, id string) error {
	return k.runner.Resume(ctx, id)
}

// TableAliasFor replaces the database separator so the name can be used
// as an alias.
func (k *Kudu) TableAliasFor(table string) string {
	return strings.ReplaceAll(table, ".", "_")
}

// ColumnsForDistinct returns columns unchanged; the engine accepts ORDER BY
// terms that are not selected.
func (k *Kudu) ColumnsForDistinct(columns string, _ []string) string {
	return columns
}
