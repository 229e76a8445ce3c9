// Package introspect reads table structure back from the engine through
// DESCRIBE and SHOW TABLES and maps it onto the schema model.
package introspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/schema"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// Columns reported by DESCRIBE on a Kudu table.
const (
	FieldName        = "name"
	FieldType        = "type"
	FieldComment     = "comment"
	FieldPrimaryKey  = "primary_key"
	FieldNullable    = "nullable"
	FieldDefault     = "default_value"
	FieldEncoding    = "encoding"
	FieldCompression = "compression"
	FieldBlockSize   = "block_size"
)

// FieldCreateStatement is the single column of SHOW CREATE TABLE.
const FieldCreateStatement = "result"

var hashPartitionsRe = regexp.MustCompile(`(?is)PARTITION\s+BY\s+HASH\s*\([^)]*\)\s*PARTITIONS\s+(\d+)`)

// Querier runs a statement and returns its materialized result.
type Querier interface {
	Query(ctx context.Context, sql string) (*core.Result, error)
}

// Introspector reads catalog information through a Querier.
type Introspector struct {
	q      Querier
	types  *types.Registry
	logger *slog.Logger
}

// New creates an introspector. A nil registry uses the default type
// configuration; a nil logger discards output.
func New(q Querier, reg *types.Registry, logger *slog.Logger) *Introspector {
	if reg == nil {
		reg = types.NewRegistry(types.DefaultConfig())
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Introspector{q: q, types: reg, logger: logger}
}

// StructureRow is one raw DESCRIBE row.
type StructureRow struct {
	Name        string
	Type        string
	Comment     string
	PrimaryKey  bool
	Nullable    bool
	Default     string
	Encoding    string
	Compression string
	BlockSize   int
}

// TableStructure returns the raw DESCRIBE rows of table in column order.
func (in *Introspector) TableStructure(ctx context.Context, table string) ([]StructureRow, error) {
	res, err := in.q.Query(ctx, "DESCRIBE "+dialect.QuoteTableName(table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}

	rows := make([]StructureRow, 0, res.Len())
	for i := range res.Rows {
		sr := StructureRow{
			Name:        cell(res, i, FieldName),
			Type:        strings.ToLower(cell(res, i, FieldType)),
			Comment:     cell(res, i, FieldComment),
			PrimaryKey:  flag(cell(res, i, FieldPrimaryKey)),
			Nullable:    flag(cell(res, i, FieldNullable)),
			Default:     cell(res, i, FieldDefault),
			Encoding:    cell(res, i, FieldEncoding),
			Compression: cell(res, i, FieldCompression),
		}
		if bs := cell(res, i, FieldBlockSize); bs != "" {
			if n, err := strconv.Atoi(bs); err == nil {
				sr.BlockSize = n
			}
		}
		rows = append(rows, sr)
	}
	in.logger.Debug("described table", slog.String("table", table), slog.Int("columns", len(rows)))
	return rows, nil
}

// DescribeTable returns the column definitions of table in column order.
func (in *Introspector) DescribeTable(ctx context.Context, table string) ([]schema.ColumnDefinition, error) {
	rows, err := in.TableStructure(ctx, table)
	if err != nil {
		return nil, err
	}
	cols := make([]schema.ColumnDefinition, len(rows))
	for i, r := range rows {
		cols[i] = in.ToColumn(r)
	}
	return cols, nil
}

// ToColumn maps a raw DESCRIBE row onto a column definition. Encoding,
// compression and block size are left unset when the engine reports its
// automatic defaults.
func (in *Introspector) ToColumn(r StructureRow) schema.ColumnDefinition {
	col := schema.ColumnDefinition{
		Name:       r.Name,
		Type:       in.types.InferType(r.Type, r.Name),
		NotNull:    !r.Nullable,
		PrimaryKey: r.PrimaryKey,
		Comment:    r.Comment,
		SQLType:    r.Type,
	}
	if r.Default != "" {
		col.Default = in.defaultValue(col.Type, r.Default)
		col.HasDefault = true
	}
	if !isAuto(r.Encoding) {
		col.Encoding = r.Encoding
	}
	if !isAuto(r.Compression) {
		col.Compression = r.Compression
	}
	if r.BlockSize > 0 {
		col.BlockSize = r.BlockSize
	}
	return col
}

// defaultValue converts a reported default into a typed value so it
// renders back as the same literal. Decimals stay verbatim.
func (in *Introspector) defaultValue(t types.Type, raw string) any {
	if t.Kind == types.Decimal {
		return json.Number(raw)
	}
	v, err := in.types.Cast(t, raw)
	if err != nil {
		return raw
	}
	return v
}

// Tables lists the tables of the current database.
func (in *Introspector) Tables(ctx context.Context) ([]string, error) {
	res, err := in.q.Query(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	names := make([]string, 0, res.Len())
	for i := range res.Rows {
		names = append(names, cell(res, i, FieldName))
	}
	return names, nil
}

// TableExists reports whether table is listed by SHOW TABLES. Table names
// are compared case-insensitively since the engine lowercases them.
func (in *Introspector) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := in.Tables(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if strings.EqualFold(n, table) {
			return true, nil
		}
	}
	return false, nil
}

// Views is always empty; the engine exposes no separate view catalog here.
func (in *Introspector) Views(context.Context) ([]string, error) {
	return []string{}, nil
}

// ViewExists is always false.
func (in *Introspector) ViewExists(context.Context, string) (bool, error) {
	return false, nil
}

// Indexes is always empty; Kudu has no secondary indexes.
func (in *Introspector) Indexes(context.Context, string) ([]string, error) {
	return []string{}, nil
}

// PrimaryKey returns the primary key of table in column order.
func (in *Introspector) PrimaryKey(ctx context.Context, table string) (PrimaryKey, error) {
	rows, err := in.TableStructure(ctx, table)
	if err != nil {
		return PrimaryKey{}, err
	}
	var cols []string
	for _, r := range rows {
		if r.PrimaryKey {
			cols = append(cols, r.Name)
		}
	}
	return PrimaryKey{columns: cols}, nil
}

// HashPartitions returns the bucket count of the first hash partition level
// of table, read from SHOW CREATE TABLE. It is 0 when the table has no hash
// partitioning.
func (in *Introspector) HashPartitions(ctx context.Context, table string) (int, error) {
	res, err := in.q.Query(ctx, "SHOW CREATE TABLE "+dialect.QuoteTableName(table))
	if err != nil {
		return 0, fmt.Errorf("failed to show create table %s: %w", table, err)
	}
	if res.Empty() {
		return 0, nil
	}
	m := hashPartitionsRe.FindStringSubmatch(cell(res, 0, FieldCreateStatement))
	if m == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("table %s: invalid partition count %q: %w", table, m[1], err)
	}
	in.logger.Debug("read hash partitions", slog.String("table", table), slog.Int("partitions", n))
	return n, nil
}

// ColumnCheck narrows ColumnExists. Nil fields are not checked.
type ColumnCheck struct {
	Type     *types.Kind
	Nullable *bool
	Default  *string
}

// ColumnExists reports whether table has a column named column matching
// every check that is set.
func (in *Introspector) ColumnExists(ctx context.Context, table, column string, check ColumnCheck) (bool, error) {
	cols, err := in.DescribeTable(ctx, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c.Name != column {
			continue
		}
		if check.Type != nil && c.Type.Kind != *check.Type {
			continue
		}
		if check.Nullable != nil && c.Nullable() != *check.Nullable {
			continue
		}
		if check.Default != nil && (!c.HasDefault || fmt.Sprint(c.Default) != *check.Default) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func cell(res *core.Result, i int, column string) string {
	v, ok := res.Value(i, column)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

func flag(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func isAuto(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AUTO_ENCODING", "DEFAULT_COMPRESSION":
		return true
	}
	return false
}
