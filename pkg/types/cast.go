package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cast converts a raw engine value into the Go value for t. Temporal kinds
// are stored as epoch seconds and come back as UTC time.Time. Decimals stay
// strings so no precision is lost.
func (r *Registry) Cast(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch t.Kind {
	case DateTime, Time:
		if tm, ok := v.(time.Time); ok {
			return tm.UTC(), nil
		}
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("cast %v to %s: %w", v, t.Kind, err)
		}
		return time.Unix(n, 0).UTC(), nil
	case Boolean:
		return toBool(v)
	case TinyInt, SmallInt, Integer, BigInt:
		return toInt64(v)
	case Float, Double:
		return toFloat64(v)
	case Decimal, String, Char, Varchar:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	default:
		return v, nil
	}
}

// Serialize converts a Go value into the representation stored by the
// engine for t: epoch seconds for temporal kinds, bool for booleans.
func (r *Registry) Serialize(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind {
	case DateTime, Time:
		switch tv := v.(type) {
		case time.Time:
			return tv.Unix(), nil
		case *time.Time:
			if tv == nil {
				return nil, nil
			}
			return tv.Unix(), nil
		}
		return toInt64(v)
	case Boolean:
		return toBool(v)
	}
	return v, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return floatToInt(f)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, fmt.Errorf("integer out of range: %v", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	return float64(i), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "t", "1", "yes", "y", "on":
			return true, nil
		case "false", "f", "0", "no", "n", "off", "":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", b)
	}
	i, err := toInt64(v)
	if err != nil {
		return false, err
	}
	return i != 0, nil
}
