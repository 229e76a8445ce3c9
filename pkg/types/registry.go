package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

// Sizing limits enforced by RenderType.
const (
	MaxDecimalPrecision = 38
	MaxStringLimit      = 65535
	MaxCharLimit        = 255

	// VarcharThreshold is the smallest string limit rendered as VARCHAR(n)
	// instead of STRING.
	VarcharThreshold = 32768

	DefaultDecimalPrecision = 9
)

// DefaultDateTimeSuffixes are the column-name suffixes that turn an
// introspected BIGINT into a DateTime.
var DefaultDateTimeSuffixes = []string{"_at", "_date", "_time"}

// Config holds the registry settings. Build it once and pass it to NewRegistry.
type Config struct {
	// DateTimeSuffixes drive the BIGINT→DateTime inference heuristic.
	// An empty slice disables the heuristic.
	DateTimeSuffixes []string
}

// DefaultConfig returns the registry configuration used when none is given.
func DefaultConfig() Config {
	return Config{DateTimeSuffixes: append([]string(nil), DefaultDateTimeSuffixes...)}
}

// Registry renders and infers Kudu column types. It is immutable after
// construction and safe to share.
type Registry struct {
	suffixes []string
}

// NewRegistry creates a registry from cfg.
func NewRegistry(cfg Config) *Registry {
	suffixes := make([]string, 0, len(cfg.DateTimeSuffixes))
	for _, s := range cfg.DateTimeSuffixes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			suffixes = append(suffixes, s)
		}
	}
	return &Registry{suffixes: suffixes}
}

// DateTimeSuffixes returns the configured suffix set.
func (r *Registry) DateTimeSuffixes() []string {
	return append([]string(nil), r.suffixes...)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrInvalidTypeOptions, fmt.Sprintf(format, args...))
}

// RenderType returns the SQL type name for t.
func (r *Registry) RenderType(t Type) (string, error) {
	switch t.Kind {
	case TinyInt:
		return "TINYINT", nil
	case SmallInt:
		return "SMALLINT", nil
	case BigInt, DateTime, Time:
		return "BIGINT", nil
	case Integer:
		return renderInteger(t.Limit)
	case Decimal:
		return renderDecimal(t.Precision, t.Scale)
	case Float:
		return "FLOAT", nil
	case Double:
		return "DOUBLE", nil
	case Boolean:
		return "BOOLEAN", nil
	case Char:
		limit := t.Limit
		if limit == 0 {
			limit = 1
		}
		if limit < 1 || limit > MaxCharLimit {
			return "", invalid("char limit %d out of range [1,%d]", t.Limit, MaxCharLimit)
		}
		return fmt.Sprintf("CHAR(%d)", limit), nil
	case String:
		switch {
		case t.Limit == 0:
			return "STRING", nil
		case t.Limit < 1 || t.Limit > MaxStringLimit:
			return "", invalid("string limit %d out of range [1,%d]", t.Limit, MaxStringLimit)
		case t.Limit >= VarcharThreshold:
			return fmt.Sprintf("VARCHAR(%d)", t.Limit), nil
		default:
			return "STRING", nil
		}
	case Varchar:
		limit := t.Limit
		if limit == 0 {
			limit = MaxStringLimit
		}
		if limit < 1 || limit > MaxStringLimit {
			return "", invalid("varchar limit %d out of range [1,%d]", t.Limit, MaxStringLimit)
		}
		return fmt.Sprintf("VARCHAR(%d)", limit), nil
	case Unknown:
		if t.SQLType != "" {
			return strings.ToUpper(t.SQLType), nil
		}
	}
	return "", invalid("no SQL type for %s", t.Kind)
}

func renderInteger(limit int) (string, error) {
	switch limit {
	case 1:
		return "TINYINT", nil
	case 2:
		return "SMALLINT", nil
	case 0, 3, 4:
		return "INT", nil
	case 5, 6, 7, 8:
		return "BIGINT", nil
	default:
		return "", invalid("integer limit %d is not a byte width in [1,8]", limit)
	}
}

func renderDecimal(precision, scale int) (string, error) {
	if precision == 0 {
		precision = DefaultDecimalPrecision
	}
	if precision < 1 || precision > MaxDecimalPrecision {
		return "", invalid("decimal precision %d out of range [1,%d]", precision, MaxDecimalPrecision)
	}
	if scale < 0 || scale > precision {
		return "", invalid("decimal scale %d out of range [0,%d]", scale, precision)
	}
	return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale), nil
}

// InferType maps an engine-reported type name back to a logical type. A
// BIGINT column whose name ends in a configured temporal suffix is inferred
// as DateTime. Unrecognised names come back as Unknown with SQLType set.
func (r *Registry) InferType(physical, column string) Type {
	base, args := splitTypeName(physical)

	switch base {
	case "tinyint":
		return Of(TinyInt)
	case "smallint":
		return Of(SmallInt)
	case "int", "integer":
		return Of(Integer)
	case "bigint":
		if r.hasTemporalSuffix(column) {
			return Of(DateTime)
		}
		return Of(BigInt)
	case "boolean":
		return Of(Boolean)
	case "float":
		return Of(Float)
	case "double", "real":
		return Of(Double)
	case "timestamp":
		return Of(DateTime)
	case "string":
		return Of(String)
	case "decimal":
		t := DecimalOf(DefaultDecimalPrecision, 0)
		if len(args) >= 1 {
			t.Precision = args[0]
		}
		if len(args) >= 2 {
			t.Scale = args[1]
		}
		return t
	case "varchar":
		t := Of(Varchar)
		if len(args) >= 1 {
			t.Limit = args[0]
		}
		return t
	case "char":
		t := Of(Char)
		if len(args) >= 1 {
			t.Limit = args[0]
		}
		return t
	}
	return Type{Kind: Unknown, SQLType: strings.TrimSpace(physical)}
}

// InferTypeWithHint returns hint when it is set and falls back to InferType.
func (r *Registry) InferTypeWithHint(physical, column string, hint *Type) Type {
	if hint != nil && hint.Kind != Unknown {
		return *hint
	}
	return r.InferType(physical, column)
}

func (r *Registry) hasTemporalSuffix(column string) bool {
	name := strings.ToLower(column)
	for _, s := range r.suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// splitTypeName splits "decimal(10, 2)" into "decimal" and [10 2].
func splitTypeName(physical string) (string, []int) {
	s := strings.ToLower(strings.TrimSpace(physical))
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return s, nil
	}
	base := strings.TrimSpace(s[:open])
	var args []int
	for _, part := range strings.Split(s[open+1:len(s)-1], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return base, nil
		}
		args = append(args, n)
	}
	return base, args
}
