package dialect

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// Expr is a deferred SQL expression used as a column default. It is
// invoked at render time and its result is emitted verbatim.
type Expr func() string

// Literal spellings for booleans; the engine takes them unquoted.
const (
	QuotedTrue  = "true"
	QuotedFalse = "false"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// QuoteIdentifier returns name unchanged. The engine does not support
// quoted identifiers; use ValidateIdentifier for strict checking.
func QuoteIdentifier(name string) string {
	return name
}

// QuoteTableName quotes a table name, which may be database-qualified.
func QuoteTableName(name string) string {
	return QuoteIdentifier(name)
}

// ValidateIdentifier reports whether name is a plain (optionally
// database-qualified) identifier that needs no quoting.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// QuoteString renders s as a single-quoted literal, backslash-escaping
// backslashes and single quotes.
func QuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// QuoteLiteral renders v as a SQL literal. Deferred expressions and
// composite values are rejected with core.ErrUnsupportedLiteral.
func QuoteLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if val {
			return QuotedTrue, nil
		}
		return QuotedFalse, nil
	case string:
		return QuoteString(val), nil
	case []byte:
		return QuoteString(string(val)), nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return formatFloat(float64(val))
	case float64:
		return formatFloat(val)
	case json.Number:
		return val.String(), nil
	case time.Time:
		return strconv.FormatInt(val.Unix(), 10), nil
	case *time.Time:
		if val == nil {
			return "NULL", nil
		}
		return strconv.FormatInt(val.Unix(), 10), nil
	case Expr:
		return "", fmt.Errorf("%w: deferred expression must be invoked before quoting", core.ErrUnsupportedLiteral)
	}
	return "", fmt.Errorf("%w: %T", core.ErrUnsupportedLiteral, v)
}

func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %v", core.ErrUnsupportedLiteral, f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// QuoteDefault renders v for a DEFAULT clause of a column of type t.
// Deferred expressions are invoked and emitted verbatim. The engine only
// accepts an integral zero as a FLOAT/DOUBLE default, so any value whose
// integer truncation is zero renders as 0.
func QuoteDefault(v any, t types.Type, reg *types.Registry) (string, error) {
	if expr, ok := v.(Expr); ok {
		return expr(), nil
	}
	if reg != nil {
		serialized, err := reg.Serialize(t, v)
		if err != nil {
			return "", fmt.Errorf("%w: default %v for %s: %v", core.ErrUnsupportedLiteral, v, t.Kind, err)
		}
		v = serialized
	}
	if t.IsFloating() {
		if f, ok := asFloat(v); ok && math.Trunc(f) == 0 {
			return "0", nil
		}
	}
	return QuoteLiteral(v)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
