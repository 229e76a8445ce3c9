package types

import (
	"math"
	"testing"
	"time"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderType(t *testing.T) {
	reg := NewRegistry(DefaultConfig())

	tests := []struct {
		name     string
		typ      Type
		expected string
	}{
		{"tinyint", Of(TinyInt), "TINYINT"},
		{"smallint", Of(SmallInt), "SMALLINT"},
		{"bigint", Of(BigInt), "BIGINT"},
		{"integer unset", Of(Integer), "INT"},
		{"integer 1", IntegerOf(1), "TINYINT"},
		{"integer 2", IntegerOf(2), "SMALLINT"},
		{"integer 3", IntegerOf(3), "INT"},
		{"integer 4", IntegerOf(4), "INT"},
		{"integer 5", IntegerOf(5), "BIGINT"},
		{"integer 8", IntegerOf(8), "BIGINT"},
		{"decimal", DecimalOf(10, 2), "DECIMAL(10,2)"},
		{"decimal default precision", Of(Decimal), "DECIMAL(9,0)"},
		{"float", Of(Float), "FLOAT"},
		{"double", Of(Double), "DOUBLE"},
		{"boolean", Of(Boolean), "BOOLEAN"},
		{"string", Of(String), "STRING"},
		{"string below threshold", Type{Kind: String, Limit: 255}, "STRING"},
		{"string at threshold", Type{Kind: String, Limit: 32768}, "VARCHAR(32768)"},
		{"varchar", Type{Kind: Varchar, Limit: 100}, "VARCHAR(100)"},
		{"varchar unset", Of(Varchar), "VARCHAR(65535)"},
		{"char", Type{Kind: Char, Limit: 3}, "CHAR(3)"},
		{"char unset", Of(Char), "CHAR(1)"},
		{"datetime", Of(DateTime), "BIGINT"},
		{"time", Of(Time), "BIGINT"},
		{"unknown with sql type", Type{Kind: Unknown, SQLType: "array<int>"}, "ARRAY<INT>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.RenderType(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRenderType_InvalidOptions(t *testing.T) {
	reg := NewRegistry(DefaultConfig())

	tests := []struct {
		name string
		typ  Type
	}{
		{"integer limit 9", IntegerOf(9)},
		{"integer limit negative", IntegerOf(-1)},
		{"decimal precision 39", DecimalOf(39, 0)},
		{"decimal scale above precision", DecimalOf(5, 6)},
		{"decimal negative scale", DecimalOf(5, -1)},
		{"string limit too large", Type{Kind: String, Limit: 65536}},
		{"varchar negative", Type{Kind: Varchar, Limit: -3}},
		{"char too long", Type{Kind: Char, Limit: 256}},
		{"bare unknown", Of(Unknown)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.RenderType(tt.typ)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidTypeOptions)
		})
	}
}

func TestInferType(t *testing.T) {
	reg := NewRegistry(DefaultConfig())

	tests := []struct {
		physical string
		column   string
		expected Type
	}{
		{"int", "id", Of(Integer)},
		{"tinyint", "flag", Of(TinyInt)},
		{"smallint", "rank", Of(SmallInt)},
		{"bigint", "views", Of(BigInt)},
		{"bigint", "created_at", Of(DateTime)},
		{"bigint", "birth_date", Of(DateTime)},
		{"bigint", "start_time", Of(DateTime)},
		{"BIGINT", "Updated_AT", Of(DateTime)},
		{"int", "created_at", Of(Integer)},
		{"boolean", "active", Of(Boolean)},
		{"float", "ratio", Of(Float)},
		{"double", "amount", Of(Double)},
		{"string", "name", Of(String)},
		{"timestamp", "seen", Of(DateTime)},
		{"decimal(12,4)", "price", DecimalOf(12, 4)},
		{"decimal(12, 4)", "price", DecimalOf(12, 4)},
		{"decimal", "price", DecimalOf(9, 0)},
		{"varchar(40)", "code", Type{Kind: Varchar, Limit: 40}},
		{"char(2)", "country", Type{Kind: Char, Limit: 2}},
		{"array<int>", "tags", Type{Kind: Unknown, SQLType: "array<int>"}},
	}

	for _, tt := range tests {
		t.Run(tt.physical+"/"+tt.column, func(t *testing.T) {
			assert.Equal(t, tt.expected, reg.InferType(tt.physical, tt.column))
		})
	}
}

func TestInferType_ConfigurableSuffixes(t *testing.T) {
	onlyAt := NewRegistry(Config{DateTimeSuffixes: []string{"_at"}})
	assert.Equal(t, Of(DateTime), onlyAt.InferType("bigint", "created_at"))
	assert.Equal(t, Of(BigInt), onlyAt.InferType("bigint", "birth_date"))

	disabled := NewRegistry(Config{})
	assert.Equal(t, Of(BigInt), disabled.InferType("bigint", "created_at"))
	assert.Empty(t, disabled.DateTimeSuffixes())
}

func TestInferTypeWithHint(t *testing.T) {
	reg := NewRegistry(DefaultConfig())

	hint := Of(BigInt)
	assert.Equal(t, Of(BigInt), reg.InferTypeWithHint("bigint", "created_at", &hint))
	assert.Equal(t, Of(DateTime), reg.InferTypeWithHint("bigint", "created_at", nil))
	assert.Equal(t, Of(DateTime), reg.InferTypeWithHint("bigint", "created_at", &Type{}))
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"integer", "int", "bigint", "datetime", "timestamp", "string", "text", "decimal", "bool"} {
		k, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.NotEqual(t, Unknown, k, name)
	}

	_, err := ParseKind("geometry")
	assert.Error(t, err)
}

func TestCast(t *testing.T) {
	reg := NewRegistry(DefaultConfig())
	epoch := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		typ      Type
		in       any
		expected any
	}{
		{"nil", Of(Integer), nil, nil},
		{"datetime from int64", Of(DateTime), epoch.Unix(), epoch},
		{"datetime from string", Of(DateTime), "1709294400", epoch},
		{"datetime from bytes", Of(DateTime), []byte("1709294400"), epoch},
		{"boolean from string", Of(Boolean), "true", true},
		{"boolean from int", Of(Boolean), int64(0), false},
		{"integer from string", Of(Integer), "42", int64(42)},
		{"integer from integral float", Of(BigInt), float64(7), int64(7)},
		{"double from string", Of(Double), "1.5", 1.5},
		{"decimal stays text", DecimalOf(10, 2), []byte("12.30"), "12.30"},
		{"string from bytes", Of(String), []byte("abc"), "abc"},
		{"unknown passthrough", Of(Unknown), 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Cast(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := reg.Cast(Of(Integer), "1.5")
	assert.Error(t, err)
	_, err = reg.Cast(Of(Boolean), "maybe")
	assert.Error(t, err)
}

func TestCast_IntegerRange(t *testing.T) {
	reg := NewRegistry(DefaultConfig())

	got, err := reg.Cast(Of(BigInt), float64(math.MinInt64))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)

	got, err = reg.Cast(Of(BigInt), float64(1<<62))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<62), got)

	for _, in := range []any{float64(math.MaxInt64), 1e19, -1e19, "1e300", math.Inf(1), math.NaN(), float32(1e30)} {
		_, err := reg.Cast(Of(BigInt), in)
		assert.Error(t, err, "%v", in)
	}
	_, err = reg.Cast(Of(DateTime), 1e300)
	assert.ErrorContains(t, err, "out of range")
}

func TestSerialize(t *testing.T) {
	reg := NewRegistry(DefaultConfig())
	tm := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	v, err := reg.Serialize(Of(DateTime), tm)
	require.NoError(t, err)
	assert.Equal(t, tm.Unix(), v)

	v, err = reg.Serialize(Of(Boolean), "1")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = reg.Serialize(Of(String), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}
