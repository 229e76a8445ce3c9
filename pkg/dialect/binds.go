package dialect

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

// Placeholder is the bind marker recognised by SubstituteBinds.
const Placeholder = '?'

// CountPlaceholders returns the number of bind markers in sql, ignoring
// markers inside quoted strings and backtick identifiers.
func CountPlaceholders(sql string) int {
	n := 0
	scanPlaceholders(sql, func(int) { n++ })
	return n
}

// SubstituteBinds replaces each ? in sql, left to right, with the quoted
// literal of the matching bind value. The number of markers must equal
// len(binds).
func SubstituteBinds(sql string, binds []any) (string, error) {
	var positions []int
	scanPlaceholders(sql, func(i int) { positions = append(positions, i) })

	if len(positions) != len(binds) {
		return "", fmt.Errorf("%w: %d placeholders, %d binds", core.ErrBindArityMismatch, len(positions), len(binds))
	}
	if len(binds) == 0 {
		return sql, nil
	}

	var b strings.Builder
	last := 0
	for i, pos := range positions {
		lit, err := QuoteLiteral(binds[i])
		if err != nil {
			return "", fmt.Errorf("bind %d: %w", i+1, err)
		}
		b.WriteString(sql[last:pos])
		b.WriteString(lit)
		last = pos + 1
	}
	b.WriteString(sql[last:])
	return b.String(), nil
}

// scanPlaceholders calls fn with the byte offset of every bind marker
// outside of '...', "..." and `...` sections.
func scanPlaceholders(sql string, fn func(int)) {
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if quote != 0 {
			switch {
			case c == '\\' && quote != '`':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case Placeholder:
			fn(i)
		}
	}
}
