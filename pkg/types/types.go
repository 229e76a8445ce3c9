// Package types maps dialect-neutral logical column types to Kudu SQL type
// names and back.
package types

import (
	"fmt"
	"strings"
)

// Kind is a dialect-neutral logical column type.
type Kind int

// Logical column kinds.
const (
	Unknown Kind = iota
	TinyInt
	SmallInt
	Integer
	BigInt
	Decimal
	Float
	Double
	Boolean
	Char
	String
	Varchar
	DateTime
	Time
)

var kindNames = map[Kind]string{
	Unknown:  "unknown",
	TinyInt:  "tinyint",
	SmallInt: "smallint",
	Integer:  "integer",
	BigInt:   "bigint",
	Decimal:  "decimal",
	Float:    "float",
	Double:   "double",
	Boolean:  "boolean",
	Char:     "char",
	String:   "string",
	Varchar:  "varchar",
	DateTime: "datetime",
	Time:     "time",
}

// String returns the logical name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind returns the kind for a logical name such as "integer" or "datetime".
// "int", "text", "timestamp" and "bool" are accepted as aliases.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "int":
		return Integer, nil
	case "text":
		return String, nil
	case "timestamp":
		return DateTime, nil
	case "bool":
		return Boolean, nil
	}
	for k, s := range kindNames {
		if s == n && k != Unknown {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("unknown logical type %q", name)
}

// Type is a logical type plus its sizing options. A zero Limit, Precision
// or Scale means "unset".
type Type struct {
	Kind      Kind
	Limit     int
	Precision int
	Scale     int

	// SQLType carries the engine's own spelling for Unknown kinds so they
	// can be rendered back verbatim.
	SQLType string
}

// Of returns a Type of kind k without options.
func Of(k Kind) Type { return Type{Kind: k} }

// DecimalOf returns a decimal type with the given precision and scale.
func DecimalOf(precision, scale int) Type {
	return Type{Kind: Decimal, Precision: precision, Scale: scale}
}

// IntegerOf returns an integer type with a byte-width hint.
func IntegerOf(limit int) Type { return Type{Kind: Integer, Limit: limit} }

// IsTemporal reports whether values of this type are stored as epoch seconds.
func (t Type) IsTemporal() bool {
	return t.Kind == DateTime || t.Kind == Time
}

// IsFloating reports whether the type is FLOAT or DOUBLE.
func (t Type) IsFloating() bool {
	return t.Kind == Float || t.Kind == Double
}

func (t Type) String() string {
	switch t.Kind {
	case Decimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case Char, Varchar, String, Integer:
		if t.Limit > 0 {
			return fmt.Sprintf("%s(%d)", t.Kind, t.Limit)
		}
	case Unknown:
		if t.SQLType != "" {
			return t.SQLType
		}
	}
	return t.Kind.String()
}
