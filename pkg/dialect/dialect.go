// Package dialect provides the Impala/Kudu SQL dialect definition: the
// settings the DDL generator and executor render against, literal quoting,
// and client-side bind substitution.
//
// A Dialect is built once with NewDialect(...).Build() and passed to the
// components that need it. There is no package-level registry.
package dialect

import (
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// Defaults for a Kudu-backed Impala gateway.
const (
	DefaultName       = "kudu"
	DefaultStoredAs   = "KUDU"
	DefaultPartitions = 2
)

// Dialect is an immutable dialect configuration.
type Dialect struct {
	Name string

	// StoredAs is the storage-engine marker appended to CREATE TABLE.
	StoredAs string

	// DefaultPartitions is the hash partition count used when a table
	// definition does not set one.
	DefaultPartitions int

	// Database is used to re-point kudu.table_name after renames.
	Database string

	// MultiInsert enables multi-row INSERT ... VALUES statements.
	MultiInsert bool

	// PreparedStatements reports server-side parameter binding. When false
	// the executor substitutes binds client-side.
	PreparedStatements bool

	// SyncKuduTableName issues a TBLPROPERTIES update after every rename
	// so the underlying Kudu table follows the Impala name.
	SyncKuduTableName bool

	types *types.Registry
}

// Types returns the dialect's type registry.
func (d *Dialect) Types() *types.Registry {
	return d.types
}

// Builder assembles a Dialect.
type Builder struct {
	d        Dialect
	typesCfg types.Config
}

// NewDialect starts a dialect with Kudu defaults.
func NewDialect(name string) *Builder {
	if name == "" {
		name = DefaultName
	}
	return &Builder{
		d: Dialect{
			Name:              name,
			StoredAs:          DefaultStoredAs,
			DefaultPartitions: DefaultPartitions,
			MultiInsert:       true,
			SyncKuduTableName: true,
		},
		typesCfg: types.DefaultConfig(),
	}
}

// StoredAs sets the storage-engine marker.
func (b *Builder) StoredAs(engine string) *Builder {
	if engine != "" {
		b.d.StoredAs = engine
	}
	return b
}

// Partitions sets the default hash partition count.
func (b *Builder) Partitions(n int) *Builder {
	if n > 0 {
		b.d.DefaultPartitions = n
	}
	return b
}

// Database sets the database name used for kudu.table_name properties.
func (b *Builder) Database(name string) *Builder {
	b.d.Database = name
	return b
}

// MultiInsert toggles multi-row INSERT support.
func (b *Builder) MultiInsert(enabled bool) *Builder {
	b.d.MultiInsert = enabled
	return b
}

// PreparedStatements toggles server-side parameter binding.
func (b *Builder) PreparedStatements(enabled bool) *Builder {
	b.d.PreparedStatements = enabled
	return b
}

// SyncKuduTableName toggles the TBLPROPERTIES update after renames.
func (b *Builder) SyncKuduTableName(enabled bool) *Builder {
	b.d.SyncKuduTableName = enabled
	return b
}

// DateTimeSuffixes replaces the BIGINT→DateTime inference suffixes.
// Passing no suffixes disables the heuristic.
func (b *Builder) DateTimeSuffixes(suffixes ...string) *Builder {
	b.typesCfg.DateTimeSuffixes = append([]string(nil), suffixes...)
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	d := b.d
	d.types = types.NewRegistry(b.typesCfg)
	return &d
}

// Kudu is the default dialect.
func Kudu() *Dialect {
	return NewDialect(DefaultName).Build()
}
