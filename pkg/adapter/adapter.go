// Package adapter exposes the Kudu connection adapter to ORM front ends.
//
// The Adapter interface is the capability contract front ends depend on.
// Kudu implements it by composing independently testable components: the
// type registry, DDL generator, introspector, executor, migration
// bookkeeper and rebuild runner. SQLClient is the database/sql backed
// engine client.
package adapter

import (
	"context"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/introspect"
	"github.com/leapstack-labs/kudusql/pkg/rebuild"
	"github.com/leapstack-labs/kudusql/pkg/schema"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// Connection manages the single engine connection.
type Connection interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	IsConnected() bool
}

// Statements dispatches SQL.
type Statements interface {
	Execute(ctx context.Context, sql string) error
	Query(ctx context.Context, sql string) (*core.Result, error)
	ExecQuery(ctx context.Context, sql string, binds ...any) (*core.Result, error)
	ExecInsert(ctx context.Context, sql string, binds ...any) (int64, error)
	ExecUpdate(ctx context.Context, sql string, binds ...any) (int64, error)
	ExecDelete(ctx context.Context, sql string, binds ...any) (int64, error)
	QueryTyped(ctx context.Context, sql string, columnTypes map[string]types.Type) (*core.Result, error)
}

// SchemaReader reads the catalog.
type SchemaReader interface {
	Tables(ctx context.Context) ([]string, error)
	TableExists(ctx context.Context, table string) (bool, error)
	Views(ctx context.Context) ([]string, error)
	ViewExists(ctx context.Context, view string) (bool, error)
	Indexes(ctx context.Context, table string) ([]string, error)
	Columns(ctx context.Context, table string) ([]schema.ColumnDefinition, error)
	ColumnExists(ctx context.Context, table, column string, check introspect.ColumnCheck) (bool, error)
	PrimaryKey(ctx context.Context, table string) (introspect.PrimaryKey, error)
}

// SchemaWriter changes the schema.
type SchemaWriter interface {
	CreateTable(ctx context.Context, td *schema.TableDefinition, opts CreateTableOptions) error
	DropTable(ctx context.Context, table string, ifExists bool) error
	RenameTable(ctx context.Context, oldName, newName string) error
	CreateJoinTable(ctx context.Context, table1, table2 string, opts JoinTableOptions) error
	DropJoinTable(ctx context.Context, table1, table2 string, opts JoinTableOptions) error
	DropTempTables(ctx context.Context) error

	AddColumn(ctx context.Context, table string, col schema.ColumnDefinition) error
	RemoveColumn(ctx context.Context, table, column string) error
	RemoveColumns(ctx context.Context, table string, columns ...string) error
	RenameColumn(ctx context.Context, table, oldName, newName string) error
	DropPrimaryKeyColumn(ctx context.Context, table, column string) error
	ReloadTableData(ctx context.Context, table, column string, value any) error
	AddTimestamps(ctx context.Context, table string, opts ...schema.ColumnOption) error
	RemoveTimestamps(ctx context.Context, table string) error

	ChangeColumn(ctx context.Context, table, column string, t types.Type) error
	ChangeColumnDefault(ctx context.Context, table, column string, value any) error
	ChangeColumnNull(ctx context.Context, table, column string, nullable bool) error
	AddIndex(ctx context.Context, table string, columns ...string) error
	RemoveIndex(ctx context.Context, table, index string) error
	RenameIndex(ctx context.Context, table, oldName, newName string) error
	IndexExists(ctx context.Context, table string, columns ...string) (bool, error)
	AddForeignKey(ctx context.Context, fromTable, toTable string) error
	RemoveForeignKey(ctx context.Context, fromTable, toTable string) error
	TableComment(ctx context.Context, table string) (string, error)
	ChangeTableComment(ctx context.Context, table, comment string) error
	ChangeColumnComment(ctx context.Context, table, column, comment string) error
}

// Migrations records applied schema migrations.
type Migrations interface {
	EnsureMigrationsTable(ctx context.Context) error
	AppliedVersions(ctx context.Context) ([]int64, error)
	AssumeMigratedUptoVersion(ctx context.Context, version int64, files []string) error
}

// Rebuilds inspects and resumes primary-key rebuilds.
type Rebuilds interface {
	Rebuilds(ctx context.Context) ([]rebuild.Record, error)
	ResumeRebuild(ctx context.Context, id string) error
}

// Adapter is the full capability set of a connection adapter.
type Adapter interface {
	Connection
	Statements
	SchemaReader
	SchemaWriter
	Migrations
	Rebuilds

	// Dialect returns the dialect the adapter renders against.
	Dialect() *dialect.Dialect

	// TableAliasFor returns an alias usable for a possibly qualified table.
	TableAliasFor(table string) string

	// ColumnsForDistinct returns the columns needed for SELECT DISTINCT
	// with the given ORDER BY terms.
	ColumnsForDistinct(columns string, orders []string) string
}

// CreateTableOptions modify CreateTable.
type CreateTableOptions struct {
	// Force drops an existing table of the same name first.
	Force bool

	// NoID skips the implicit primary-key column added to tables that
	// declare no primary key.
	NoID bool

	// PrimaryKey names the implicit primary-key column. Defaults to "id".
	PrimaryKey string
}

// JoinTableOptions modify CreateJoinTable and DropJoinTable.
type JoinTableOptions struct {
	// TableName overrides the derived join table name.
	TableName string

	// Columns are appended after the two key columns.
	Columns []schema.ColumnDefinition

	Force bool
}
