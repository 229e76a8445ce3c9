// Package schema holds the in-memory model of a table definition while it
// is being built: ordered columns, primary keys, and the hash partition spec.
package schema

import (
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// ColumnDefinition describes one column. The zero value is a nullable
// column without default.
type ColumnDefinition struct {
	Name       string
	Type       types.Type
	NotNull    bool
	Default    any
	HasDefault bool
	PrimaryKey bool

	// Kudu storage hints, rendered verbatim when set.
	Encoding    string
	Compression string
	BlockSize   int

	Comment string

	// SQLType is the type as reported by the engine for introspected columns.
	SQLType string
}

// Nullable reports whether the column accepts NULL. Primary-key columns
// never do.
func (c ColumnDefinition) Nullable() bool {
	return !c.NotNull && !c.PrimaryKey
}

// ColumnOption configures a ColumnDefinition.
type ColumnOption func(*ColumnDefinition)

// NotNull marks the column NOT NULL.
func NotNull() ColumnOption {
	return func(c *ColumnDefinition) { c.NotNull = true }
}

// Null sets nullability explicitly.
func Null(nullable bool) ColumnOption {
	return func(c *ColumnDefinition) { c.NotNull = !nullable }
}

// Default sets the column default. A dialect.Expr is rendered verbatim.
func Default(v any) ColumnOption {
	return func(c *ColumnDefinition) {
		c.Default = v
		c.HasDefault = true
	}
}

// PrimaryKey marks the column as part of the primary key.
func PrimaryKey() ColumnOption {
	return func(c *ColumnDefinition) { c.PrimaryKey = true }
}

// Encoding sets the Kudu column encoding (e.g. PLAIN_ENCODING, DICT_ENCODING).
func Encoding(e string) ColumnOption {
	return func(c *ColumnDefinition) { c.Encoding = e }
}

// Compression sets the Kudu column compression (e.g. LZ4, SNAPPY).
func Compression(alg string) ColumnOption {
	return func(c *ColumnDefinition) { c.Compression = alg }
}

// BlockSize sets the Kudu block size in bytes.
func BlockSize(n int) ColumnOption {
	return func(c *ColumnDefinition) { c.BlockSize = n }
}

// Comment sets the column comment.
func Comment(s string) ColumnOption {
	return func(c *ColumnDefinition) { c.Comment = s }
}

// Limit sets the type's length or byte-width hint.
func Limit(n int) ColumnOption {
	return func(c *ColumnDefinition) { c.Type.Limit = n }
}

// Precision sets the decimal precision and scale.
func Precision(precision, scale int) ColumnOption {
	return func(c *ColumnDefinition) {
		c.Type.Precision = precision
		c.Type.Scale = scale
	}
}

// NewColumn builds a column definition.
func NewColumn(name string, t types.Type, opts ...ColumnOption) ColumnDefinition {
	c := ColumnDefinition{Name: name, Type: t}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
