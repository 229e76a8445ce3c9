package ddl

import (
	"testing"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/schema"
	"github.com/leapstack-labs/kudusql/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCreate(t *testing.T) {
	g := New(nil)

	tests := []struct {
		name     string
		td       *schema.TableDefinition
		expected string
	}{
		{
			name:     "minimal managed table",
			td:       schema.NewTable("t").PrimaryKey("id", types.Of(types.Integer)).String("name"),
			expected: "CREATE TABLE t (id INT NOT NULL, name STRING NULL, PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 2 STORED AS KUDU",
		},
		{
			name: "composite key with explicit partitions",
			td: schema.NewTable("events", schema.PrimaryKeys("tenant", "id"), schema.PartitionBy("tenant"), schema.Partitions(8)).
				String("tenant").
				BigInt("id").
				Double("score", schema.Default(0.0)),
			expected: "CREATE TABLE events (tenant STRING NOT NULL, id BIGINT NOT NULL, score DOUBLE NULL DEFAULT 0, " +
				"PRIMARY KEY (tenant, id)) PARTITION BY HASH(tenant) PARTITIONS 8 STORED AS KUDU",
		},
		{
			name: "explicit key list overrides column flag",
			td: schema.NewTable("codes", schema.PrimaryKeys("id")).
				BigInt("id").
				String("code", schema.PrimaryKey()),
			expected: "CREATE TABLE codes (id BIGINT NOT NULL, code STRING NULL, PRIMARY KEY (id)) " +
				"PARTITION BY HASH(id) PARTITIONS 2 STORED AS KUDU",
		},
		{
			name: "column attributes in fixed order",
			td: schema.NewTable("m").
				PrimaryKey("id", types.Of(types.BigInt)).
				String("code", schema.NotNull(), schema.Encoding("DICT_ENCODING"), schema.Compression("LZ4"),
					schema.Default("x"), schema.BlockSize(4096)),
			expected: "CREATE TABLE m (id BIGINT NOT NULL, code STRING NOT NULL ENCODING DICT_ENCODING COMPRESSION LZ4 " +
				"DEFAULT 'x' BLOCK SIZE 4096, PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 2 STORED AS KUDU",
		},
		{
			name: "external table has no partition clause",
			td:   schema.NewTable("ext", schema.External()).PrimaryKey("id", types.Of(types.Integer)),
			expected: "CREATE EXTERNAL TABLE ext (id INT NOT NULL, PRIMARY KEY (id)) STORED AS KUDU",
		},
		{
			name:     "external table without keys",
			td:       schema.NewTable("ext", schema.External()).String("a"),
			expected: "CREATE EXTERNAL TABLE ext (a STRING NULL) STORED AS KUDU",
		},
		{
			name: "datetime and decimal",
			td: schema.NewTable("orders").
				PrimaryKey("id", types.Of(types.Integer)).
				Decimal("total", 10, 2).
				Timestamps(),
			expected: "CREATE TABLE orders (id INT NOT NULL, total DECIMAL(10,2) NULL, created_at BIGINT NOT NULL, " +
				"updated_at BIGINT NOT NULL, PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 2 STORED AS KUDU",
		},
		{
			name: "comments",
			td: schema.NewTable("c", schema.TableComment("it's")).
				PrimaryKey("id", types.Of(types.Integer), schema.Comment("key")),
			expected: "CREATE TABLE c (id INT NOT NULL COMMENT 'key', PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 2 " +
				"COMMENT 'it\\'s' STORED AS KUDU",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := g.RenderCreate(tt.td)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sql)
		})
	}
}

func TestRenderCreate_DialectSettings(t *testing.T) {
	d := dialect.NewDialect("kudu").Partitions(16).StoredAs("KUDU").Build()
	g := New(d)

	sql, err := g.RenderCreate(schema.NewTable("t").PrimaryKey("id", types.Of(types.Integer)))
	require.NoError(t, err)
	assert.Contains(t, sql, "PARTITIONS 16")
	assert.Same(t, d, g.Dialect())
}

func TestRenderCreate_Errors(t *testing.T) {
	g := New(nil)

	tests := []struct {
		name string
		td   *schema.TableDefinition
		err  error
	}{
		{
			name: "no primary key on managed table",
			td:   schema.NewTable("t").String("a"),
			err:  core.ErrMissingPrimaryKey,
		},
		{
			name: "explicit key not declared",
			td:   schema.NewTable("t", schema.PrimaryKeys("missing")).String("a"),
			err:  core.ErrMissingPrimaryKey,
		},
		{
			name: "partition column not declared",
			td:   schema.NewTable("t", schema.PartitionBy("region")).PrimaryKey("id", types.Of(types.Integer)),
			err:  core.ErrInvalidPartitionColumns,
		},
		{
			name: "negative partition count",
			td:   schema.NewTable("t", schema.Partitions(-1)).PrimaryKey("id", types.Of(types.Integer)),
			err:  core.ErrInvalidPartitionColumns,
		},
		{
			name: "invalid type options",
			td:   schema.NewTable("t").PrimaryKey("id", types.Of(types.Integer)).Decimal("d", 40, 2),
			err:  core.ErrInvalidTypeOptions,
		},
		{
			name: "unsupported default literal",
			td:   schema.NewTable("t").PrimaryKey("id", types.Of(types.Integer)).String("s", schema.Default(struct{}{})),
			err:  core.ErrUnsupportedLiteral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, err := g.RenderCreate(tt.td)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, sql)
		})
	}
}

func TestRenderCreate_BuilderError(t *testing.T) {
	td := schema.NewTable("t").PrimaryKey("id", types.Of(types.Integer)).String("id")
	_, err := New(nil).RenderCreate(td)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestRenderAlterStatements(t *testing.T) {
	g := New(nil)

	assert.Equal(t, "DROP TABLE t", g.RenderDropTable("t", false))
	assert.Equal(t, "DROP TABLE IF EXISTS t", g.RenderDropTable("t", true))
	assert.Equal(t, "ALTER TABLE a RENAME TO b", g.RenderRenameTable("a", "b"))
	assert.Equal(t, "ALTER TABLE t DROP COLUMN c", g.RenderAlterDropColumn("t", "c"))
	assert.Equal(t, "ALTER TABLE t CHANGE a b STRING", g.RenderRenameColumn("t", "a", "b", "STRING"))

	sql, err := g.RenderAlterAddColumn("t", schema.NewColumn("age", types.Of(types.Integer), schema.Default(0)))
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE t ADD COLUMN age INT NULL DEFAULT 0", sql)

	_, err = g.RenderAlterAddColumn("t", schema.NewColumn("k", types.Of(types.Integer), schema.PrimaryKey()))
	assert.ErrorIs(t, err, core.ErrCannotModifyPrimaryKey)
}

func TestRenderSetKuduTableName(t *testing.T) {
	_, ok := New(nil).RenderSetKuduTableName("t")
	assert.False(t, ok, "no database configured")

	g := New(dialect.NewDialect("kudu").Database("analytics").SyncKuduTableName(true).Build())
	sql, ok := g.RenderSetKuduTableName("users")
	require.True(t, ok)
	assert.Equal(t, "ALTER TABLE users SET TBLPROPERTIES('kudu.table_name' = 'impala::analytics.users')", sql)

	g = New(dialect.NewDialect("kudu").Database("analytics").SyncKuduTableName(false).Build())
	_, ok = g.RenderSetKuduTableName("users")
	assert.False(t, ok)
}

func TestRenderInsertSelect(t *testing.T) {
	g := New(nil)

	sql, err := g.RenderInsertSelect(CopySpec{
		Target:  "t",
		Source:  "t_temp",
		Columns: []string{"id", "name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (id, name) SELECT id, name FROM t_temp", sql)

	sql, err = g.RenderInsertSelect(CopySpec{
		Target:  "t",
		Source:  "t_temp",
		Columns: []string{"id"},
		Extra:   []ExtraColumn{{Name: "region", Value: "eu", Type: types.Of(types.String)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (id, region) SELECT id, 'eu' AS region FROM t_temp", sql)

	_, err = g.RenderInsertSelect(CopySpec{Target: "t", Source: "s"})
	assert.Error(t, err)
}

func TestRenderInsertValues(t *testing.T) {
	g := New(nil)

	sql, err := g.RenderInsertValues("schema_migrations", []string{"version"}, [][]any{{"1"}, {"2"}})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO schema_migrations (version) VALUES ('1'), ('2')", sql)

	_, err = g.RenderInsertValues("t", []string{"a", "b"}, [][]any{{1}})
	assert.Error(t, err)

	_, err = g.RenderInsertValues("t", []string{"a"}, nil)
	assert.Error(t, err)

	_, err = g.RenderInsertValues("t", []string{"a"}, [][]any{{struct{}{}}})
	assert.ErrorIs(t, err, core.ErrUnsupportedLiteral)
}

func TestUnsupportedOperations(t *testing.T) {
	g := New(nil)

	calls := map[string]func() (string, error){
		"change_column":         func() (string, error) { return g.RenderChangeColumnType("t", "c", "INT") },
		"change_column_default": func() (string, error) { return g.RenderChangeColumnDefault("t", "c", 1) },
		"change_column_null":    func() (string, error) { return g.RenderChangeColumnNullability("t", "c", true) },
		"add_index":             func() (string, error) { return g.RenderAddIndex("t", []string{"c"}) },
		"remove_index":          func() (string, error) { return g.RenderRemoveIndex("t", "i") },
		"rename_index":          func() (string, error) { return g.RenderRenameIndex("t", "a", "b") },
		"add_foreign_key":       func() (string, error) { return g.RenderAddForeignKey("a", "b") },
		"remove_foreign_key":    func() (string, error) { return g.RenderRemoveForeignKey("a", "b") },
		"change_table_comment":  func() (string, error) { return g.RenderChangeTableComment("t", "x") },
		"change_column_comment": func() (string, error) { return g.RenderChangeColumnComment("t", "c", "x") },
	}

	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			sql, err := call()
			assert.Empty(t, sql)
			require.ErrorIs(t, err, core.ErrUnsupportedOperation)

			var uerr *core.UnsupportedOperationError
			require.ErrorAs(t, err, &uerr)
			assert.Equal(t, op, uerr.Op)
		})
	}
}
