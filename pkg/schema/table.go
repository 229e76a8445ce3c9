package schema

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/kudusql/pkg/types"
)

// TableDefinition is a table definition in progress. Builder methods
// return the receiver so calls can be chained; the first builder error is
// kept and reported by Err.
type TableDefinition struct {
	Name      string
	Temporary bool

	// External tables reference storage the engine does not own; no
	// partition clause is emitted for them.
	External bool

	Columns []ColumnDefinition

	// PrimaryKeys, when non-empty, overrides column-level PrimaryKey flags.
	PrimaryKeys []string

	// PartitionColumns defaults to the resolved primary keys.
	PartitionColumns []string

	// PartitionsCount defaults to the dialect's partition count when zero.
	PartitionsCount int

	Comment string

	err error
}

// TableOption configures a TableDefinition.
type TableOption func(*TableDefinition)

// External marks the table as external.
func External() TableOption {
	return func(td *TableDefinition) { td.External = true }
}

// Temporary marks the table as temporary.
func Temporary() TableOption {
	return func(td *TableDefinition) { td.Temporary = true }
}

// Partitions sets the hash partition count.
func Partitions(n int) TableOption {
	return func(td *TableDefinition) { td.PartitionsCount = n }
}

// PartitionBy sets the hash partition columns.
func PartitionBy(columns ...string) TableOption {
	return func(td *TableDefinition) { td.PartitionColumns = append([]string(nil), columns...) }
}

// PrimaryKeys sets an explicit, ordered primary-key column list.
func PrimaryKeys(columns ...string) TableOption {
	return func(td *TableDefinition) { td.PrimaryKeys = append([]string(nil), columns...) }
}

// TableComment sets the table comment.
func TableComment(s string) TableOption {
	return func(td *TableDefinition) { td.Comment = s }
}

// NewTable starts a table definition.
func NewTable(name string, opts ...TableOption) *TableDefinition {
	td := &TableDefinition{Name: name}
	for _, opt := range opts {
		opt(td)
	}
	return td
}

// Err returns the first error recorded by a builder call.
func (td *TableDefinition) Err() error {
	return td.err
}

// Column appends a column. Defining the same column twice is an error.
func (td *TableDefinition) Column(name string, t types.Type, opts ...ColumnOption) *TableDefinition {
	if name == "" {
		td.setErr(errors.New("column name is required"))
		return td
	}
	if _, ok := td.ColumnByName(name); ok {
		td.setErr(fmt.Errorf("column %q defined twice on table %s", name, td.Name))
		return td
	}
	td.Columns = append(td.Columns, NewColumn(name, t, opts...))
	return td
}

// AddColumn appends an already built column definition.
func (td *TableDefinition) AddColumn(col ColumnDefinition) *TableDefinition {
	if _, ok := td.ColumnByName(col.Name); ok {
		td.setErr(fmt.Errorf("column %q defined twice on table %s", col.Name, td.Name))
		return td
	}
	td.Columns = append(td.Columns, col)
	return td
}

func (td *TableDefinition) setErr(err error) {
	if td.err == nil {
		td.err = err
	}
}

// PrimaryKey appends a NOT NULL primary-key column.
func (td *TableDefinition) PrimaryKey(name string, t types.Type, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, t, append([]ColumnOption{PrimaryKey(), NotNull()}, opts...)...)
}

// SetPrimaryKeys sets the explicit primary-key list.
func (td *TableDefinition) SetPrimaryKeys(columns ...string) *TableDefinition {
	td.PrimaryKeys = append([]string(nil), columns...)
	return td
}

// PartitionBy sets hash partition columns and, when n > 0, the partition count.
func (td *TableDefinition) PartitionBy(n int, columns ...string) *TableDefinition {
	td.PartitionColumns = append([]string(nil), columns...)
	if n > 0 {
		td.PartitionsCount = n
	}
	return td
}

// TinyInt appends TINYINT columns.
func (td *TableDefinition) TinyInt(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.TinyInt), opts...)
}

// SmallInt appends SMALLINT columns.
func (td *TableDefinition) SmallInt(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.SmallInt), opts...)
}

// Integer appends an integer column; use Limit to pick the width.
func (td *TableDefinition) Integer(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.Integer), opts...)
}

// BigInt appends a BIGINT column.
func (td *TableDefinition) BigInt(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.BigInt), opts...)
}

// Decimal appends a DECIMAL(precision,scale) column.
func (td *TableDefinition) Decimal(name string, precision, scale int, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.DecimalOf(precision, scale), opts...)
}

// Float appends a FLOAT column.
func (td *TableDefinition) Float(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.Float), opts...)
}

// Double appends a DOUBLE column.
func (td *TableDefinition) Double(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.Double), opts...)
}

// Boolean appends a BOOLEAN column.
func (td *TableDefinition) Boolean(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.Boolean), opts...)
}

// String appends a STRING column.
func (td *TableDefinition) String(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.String), opts...)
}

// Char appends a CHAR(limit) column.
func (td *TableDefinition) Char(name string, limit int, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Type{Kind: types.Char, Limit: limit}, opts...)
}

// Varchar appends a VARCHAR(limit) column.
func (td *TableDefinition) Varchar(name string, limit int, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Type{Kind: types.Varchar, Limit: limit}, opts...)
}

// DateTime appends a datetime column stored as epoch seconds.
func (td *TableDefinition) DateTime(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.DateTime), opts...)
}

// Time appends a time column stored as epoch seconds.
func (td *TableDefinition) Time(name string, opts ...ColumnOption) *TableDefinition {
	return td.Column(name, types.Of(types.Time), opts...)
}

// Timestamps appends created_at and updated_at, NOT NULL unless overridden.
func (td *TableDefinition) Timestamps(opts ...ColumnOption) *TableDefinition {
	opts = append([]ColumnOption{NotNull()}, opts...)
	return td.DateTime("created_at", opts...).DateTime("updated_at", opts...)
}

// ColumnByName returns the named column.
func (td *TableDefinition) ColumnByName(name string) (ColumnDefinition, bool) {
	for _, c := range td.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// ColumnNames returns the column names in declaration order.
func (td *TableDefinition) ColumnNames() []string {
	names := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		names[i] = c.Name
	}
	return names
}

// ResolvePrimaryKeys returns the explicit primary-key list when set, else
// the columns flagged PrimaryKey in declaration order.
func (td *TableDefinition) ResolvePrimaryKeys() []string {
	if len(td.PrimaryKeys) > 0 {
		return append([]string(nil), td.PrimaryKeys...)
	}
	var pks []string
	for _, c := range td.Columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

// ResolvePartitionColumns returns the explicit partition columns when set,
// else the resolved primary keys.
func (td *TableDefinition) ResolvePartitionColumns() []string {
	if len(td.PartitionColumns) > 0 {
		return append([]string(nil), td.PartitionColumns...)
	}
	return td.ResolvePrimaryKeys()
}

// IsPrimaryKey reports whether name resolves to a primary-key column.
func (td *TableDefinition) IsPrimaryKey(name string) bool {
	for _, pk := range td.ResolvePrimaryKeys() {
		if pk == name {
			return true
		}
	}
	return false
}
