package ddl

import (
	"github.com/leapstack-labs/kudusql/pkg/core"
)

// The engine has no DDL for the operations below. Each returns a typed
// *core.UnsupportedOperationError matching core.ErrUnsupportedOperation.

// RenderChangeColumnType always fails.
func (g *Generator) RenderChangeColumnType(table, column, sqlType string) (string, error) {
	return "", core.Unsupported("change_column", "altering column types is not supported by kudu")
}

// RenderChangeColumnDefault always fails.
func (g *Generator) RenderChangeColumnDefault(table, column string, value any) (string, error) {
	return "", core.Unsupported("change_column_default", "altering column defaults is not supported by kudu")
}

// RenderChangeColumnNullability always fails.
func (g *Generator) RenderChangeColumnNullability(table, column string, nullable bool) (string, error) {
	return "", core.Unsupported("change_column_null", "altering column nullability is not supported by kudu")
}

// RenderAddIndex always fails.
func (g *Generator) RenderAddIndex(table string, columns []string) (string, error) {
	return "", core.Unsupported("add_index", "secondary indexes are not supported by kudu")
}

// RenderRemoveIndex always fails.
func (g *Generator) RenderRemoveIndex(table, index string) (string, error) {
	return "", core.Unsupported("remove_index", "secondary indexes are not supported by kudu")
}

// RenderRenameIndex always fails.
func (g *Generator) RenderRenameIndex(table, oldName, newName string) (string, error) {
	return "", core.Unsupported("rename_index", "secondary indexes are not supported by kudu")
}

// RenderAddForeignKey always fails.
func (g *Generator) RenderAddForeignKey(fromTable, toTable string) (string, error) {
	return "", core.Unsupported("add_foreign_key", "foreign keys are not supported by kudu")
}

// RenderRemoveForeignKey always fails.
func (g *Generator) RenderRemoveForeignKey(fromTable, toTable string) (string, error) {
	return "", core.Unsupported("remove_foreign_key", "foreign keys are not supported by kudu")
}

// RenderChangeTableComment always fails.
func (g *Generator) RenderChangeTableComment(table, comment string) (string, error) {
	return "", core.Unsupported("change_table_comment", "altering table comments is not supported")
}

// RenderChangeColumnComment always fails.
func (g *Generator) RenderChangeColumnComment(table, column, comment string) (string, error) {
	return "", core.Unsupported("change_column_comment", "altering column comments is not supported")
}
