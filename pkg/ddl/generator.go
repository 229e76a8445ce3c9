// Package ddl renders schema definitions into Impala/Kudu DDL.
//
// Rendering is a single pass over the definition. Every error is returned
// before any SQL text exists, so a failed render never yields a partial
// statement.
package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/schema"
)

// Generator renders DDL for one dialect.
type Generator struct {
	d *dialect.Dialect
}

// New creates a generator. A nil dialect means dialect.Kudu().
func New(d *dialect.Dialect) *Generator {
	if d == nil {
		d = dialect.Kudu()
	}
	return &Generator{d: d}
}

// Dialect returns the generator's dialect.
func (g *Generator) Dialect() *dialect.Dialect {
	return g.d
}

// RenderCreate renders CREATE [EXTERNAL] TABLE for td.
func (g *Generator) RenderCreate(td *schema.TableDefinition) (string, error) {
	if err := td.Err(); err != nil {
		return "", fmt.Errorf("table %s: %w", td.Name, err)
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", td.Name)
	}

	declared := make(map[string]bool, len(td.Columns))
	for _, c := range td.Columns {
		declared[c.Name] = true
	}

	primaryKeys := td.ResolvePrimaryKeys()
	if len(primaryKeys) == 0 && !td.External {
		return "", fmt.Errorf("%w: table %s does not have primary key(s) defined", core.ErrMissingPrimaryKey, td.Name)
	}
	pkSet := make(map[string]bool, len(primaryKeys))
	for _, pk := range primaryKeys {
		if !declared[pk] {
			return "", fmt.Errorf("%w: primary key column %s is not declared on table %s", core.ErrMissingPrimaryKey, pk, td.Name)
		}
		pkSet[pk] = true
	}

	statements := make([]string, 0, len(td.Columns)+1)
	for _, col := range td.Columns {
		// An explicit key list overrides column flags in both directions.
		col.PrimaryKey = pkSet[col.Name]
		def, err := g.RenderColumn(col)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", td.Name, err)
		}
		statements = append(statements, def)
	}
	if len(primaryKeys) > 0 {
		statements = append(statements, "PRIMARY KEY ("+joinIdentifiers(primaryKeys)+")")
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if td.External {
		b.WriteString("EXTERNAL ")
	}
	b.WriteString("TABLE ")
	b.WriteString(dialect.QuoteTableName(td.Name))
	b.WriteString(" (")
	b.WriteString(strings.Join(statements, ", "))
	b.WriteString(")")

	if !td.External {
		partitionColumns := td.ResolvePartitionColumns()
		var missing []string
		for _, pc := range partitionColumns {
			if !declared[pc] {
				missing = append(missing, pc)
			}
		}
		if len(missing) > 0 {
			return "", fmt.Errorf("%w: %s not declared on table %s", core.ErrInvalidPartitionColumns, strings.Join(missing, ", "), td.Name)
		}

		partitions := td.PartitionsCount
		if partitions == 0 {
			partitions = g.d.DefaultPartitions
		}
		if partitions < 1 {
			return "", fmt.Errorf("%w: partitions count %d must be positive", core.ErrInvalidPartitionColumns, partitions)
		}
		fmt.Fprintf(&b, " PARTITION BY HASH(%s) PARTITIONS %d", joinIdentifiers(partitionColumns), partitions)
	}

	if td.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(dialect.QuoteString(td.Comment))
	}
	b.WriteString(" STORED AS ")
	b.WriteString(g.d.StoredAs)

	return b.String(), nil
}

// RenderColumn renders one column definition:
//
//	name type NULL|NOT NULL [ENCODING e] [COMPRESSION c] [DEFAULT d] [BLOCK SIZE b] [COMMENT 'x']
func (g *Generator) RenderColumn(col schema.ColumnDefinition) (string, error) {
	sqlType, err := g.d.Types().RenderType(col.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", col.Name, err)
	}

	var b strings.Builder
	b.WriteString(dialect.QuoteIdentifier(col.Name))
	b.WriteString(" ")
	b.WriteString(sqlType)
	if col.Nullable() {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}
	if col.Encoding != "" {
		b.WriteString(" ENCODING ")
		b.WriteString(col.Encoding)
	}
	if col.Compression != "" {
		b.WriteString(" COMPRESSION ")
		b.WriteString(col.Compression)
	}
	if col.HasDefault {
		def, err := dialect.QuoteDefault(col.Default, col.Type, g.d.Types())
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		b.WriteString(" DEFAULT ")
		b.WriteString(def)
	}
	if col.BlockSize > 0 {
		b.WriteString(" BLOCK SIZE ")
		b.WriteString(strconv.Itoa(col.BlockSize))
	}
	if col.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(dialect.QuoteString(col.Comment))
	}
	return b.String(), nil
}

// RenderDropTable renders DROP TABLE [IF EXISTS] name.
func (g *Generator) RenderDropTable(name string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + dialect.QuoteTableName(name)
	}
	return "DROP TABLE " + dialect.QuoteTableName(name)
}

// RenderRenameTable renders ALTER TABLE old RENAME TO new.
func (g *Generator) RenderRenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", dialect.QuoteTableName(oldName), dialect.QuoteTableName(newName))
}

// RenderSetKuduTableName renders the TBLPROPERTIES update that points the
// Impala table at the Kudu table of the same name. It returns false when
// the dialect has no database configured or syncing is disabled.
func (g *Generator) RenderSetKuduTableName(table string) (string, bool) {
	if !g.d.SyncKuduTableName || g.d.Database == "" {
		return "", false
	}
	return fmt.Sprintf("ALTER TABLE %s SET TBLPROPERTIES('kudu.table_name' = 'impala::%s.%s')",
		dialect.QuoteTableName(table), g.d.Database, table), true
}

// RenderAlterAddColumn renders ALTER TABLE t ADD COLUMN <column>. Primary-key
// columns cannot be added in place.
func (g *Generator) RenderAlterAddColumn(table string, col schema.ColumnDefinition) (string, error) {
	if col.PrimaryKey {
		return "", &core.PrimaryKeyError{Table: table, Column: col.Name, Op: "add"}
	}
	def, err := g.RenderColumn(col)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", dialect.QuoteTableName(table), def), nil
}

// RenderAlterDropColumn renders ALTER TABLE t DROP COLUMN c.
func (g *Generator) RenderAlterDropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", dialect.QuoteTableName(table), dialect.QuoteIdentifier(column))
}

// RenderRenameColumn renders ALTER TABLE t CHANGE old new type.
func (g *Generator) RenderRenameColumn(table, oldName, newName, sqlType string) string {
	return fmt.Sprintf("ALTER TABLE %s CHANGE %s %s %s",
		dialect.QuoteTableName(table), dialect.QuoteIdentifier(oldName), dialect.QuoteIdentifier(newName), sqlType)
}

func joinIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = dialect.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}
