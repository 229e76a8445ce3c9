package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/kudusql/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_Builder(t *testing.T) {
	td := NewTable("users", Partitions(4)).
		PrimaryKey("id", types.Of(types.BigInt)).
		String("email", NotNull(), Encoding("DICT_ENCODING")).
		Decimal("balance", 12, 2, Default("0.00")).
		Boolean("active", Default(true)).
		Timestamps()

	require.NoError(t, td.Err())
	assert.Equal(t, []string{"id", "email", "balance", "active", "created_at", "updated_at"}, td.ColumnNames())
	assert.Equal(t, 4, td.PartitionsCount)

	id, ok := td.ColumnByName("id")
	require.True(t, ok)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable())

	email, _ := td.ColumnByName("email")
	assert.False(t, email.Nullable())
	assert.Equal(t, "DICT_ENCODING", email.Encoding)

	balance, _ := td.ColumnByName("balance")
	assert.True(t, balance.Nullable())
	assert.True(t, balance.HasDefault)
	assert.Equal(t, types.DecimalOf(12, 2), balance.Type)

	created, _ := td.ColumnByName("created_at")
	assert.Equal(t, types.DateTime, created.Type.Kind)
	assert.True(t, created.NotNull)
}

func TestTableDefinition_DuplicateColumn(t *testing.T) {
	td := NewTable("t").Integer("a").String("a").String("b")

	require.Error(t, td.Err())
	assert.Contains(t, td.Err().Error(), `"a" defined twice`)
	assert.Equal(t, []string{"a", "b"}, td.ColumnNames())

	td = NewTable("t").Column("", types.Of(types.String))
	assert.Error(t, td.Err())
}

func TestTableDefinition_ResolvePrimaryKeys(t *testing.T) {
	tests := []struct {
		name     string
		td       *TableDefinition
		expected []string
	}{
		{
			name:     "column flags in declaration order",
			td:       NewTable("t").String("b", PrimaryKey()).Integer("a", PrimaryKey()).String("c"),
			expected: []string{"b", "a"},
		},
		{
			name:     "explicit list overrides flags",
			td:       NewTable("t", PrimaryKeys("c", "a")).String("b", PrimaryKey()).Integer("a").String("c"),
			expected: []string{"c", "a"},
		},
		{
			name:     "none",
			td:       NewTable("t").String("a"),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.td.ResolvePrimaryKeys())
		})
	}
}

func TestTableDefinition_ResolvePartitionColumns(t *testing.T) {
	td := NewTable("t").PrimaryKey("id", types.Of(types.Integer)).String("region")
	assert.Equal(t, []string{"id"}, td.ResolvePartitionColumns())

	td.PartitionBy(8, "region")
	assert.Equal(t, []string{"region"}, td.ResolvePartitionColumns())
	assert.Equal(t, 8, td.PartitionsCount)

	assert.True(t, td.IsPrimaryKey("id"))
	assert.False(t, td.IsPrimaryKey("region"))
}

func TestParseTableYAML(t *testing.T) {
	data := []byte(`
name: events
partitions: 3
partition_by: [id]
comment: raw events
timestamps: true
columns:
  - name: id
    type: bigint
    primary_key: true
  - name: kind
    type: varchar
    limit: 32
    null: false
    encoding: DICT_ENCODING
    compression: LZ4
  - name: amount
    type: decimal
    precision: 10
    scale: 2
    default: 0
  - name: ratio
    type: double
    block_size: 4096
`)

	td, err := ParseTableYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "events", td.Name)
	assert.Equal(t, 3, td.PartitionsCount)
	assert.Equal(t, []string{"id"}, td.PartitionColumns)
	assert.Equal(t, "raw events", td.Comment)
	assert.Equal(t, []string{"id", "kind", "amount", "ratio", "created_at", "updated_at"}, td.ColumnNames())

	kind, _ := td.ColumnByName("kind")
	assert.Equal(t, types.Type{Kind: types.Varchar, Limit: 32}, kind.Type)
	assert.True(t, kind.NotNull)
	assert.Equal(t, "LZ4", kind.Compression)

	amount, _ := td.ColumnByName("amount")
	assert.True(t, amount.HasDefault)
	assert.Equal(t, 0, amount.Default)

	ratio, _ := td.ColumnByName("ratio")
	assert.Equal(t, 4096, ratio.BlockSize)
}

func TestParseTableYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "name: [unclosed"},
		{"missing name", "columns: []"},
		{"unknown type", "name: t\ncolumns:\n  - {name: a, type: geometry}"},
		{"duplicate column", "name: t\ncolumns:\n  - {name: a, type: int}\n  - {name: a, type: int}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTableYAML([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: users\ncolumns:\n  - {name: id, type: int, primary_key: true}\n"), 0o600))

	td, err := LoadTableFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, td.ResolvePrimaryKeys())

	_, err = LoadTableFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
