package introspect

// PrimaryKey is a table's primary key. It is either a single column or an
// ordered list of columns; callers handle both through Single and Columns.
type PrimaryKey struct {
	columns []string
}

// NewPrimaryKey builds a primary key from ordered column names.
func NewPrimaryKey(columns ...string) PrimaryKey {
	return PrimaryKey{columns: append([]string(nil), columns...)}
}

// Single returns the column name when the key has exactly one column.
func (pk PrimaryKey) Single() (string, bool) {
	if len(pk.columns) != 1 {
		return "", false
	}
	return pk.columns[0], true
}

// Columns returns the key columns in order.
func (pk PrimaryKey) Columns() []string {
	return append([]string(nil), pk.columns...)
}

// Empty reports whether the table has no primary key.
func (pk PrimaryKey) Empty() bool {
	return len(pk.columns) == 0
}

// Contains reports whether column is part of the key.
func (pk PrimaryKey) Contains(column string) bool {
	for _, c := range pk.columns {
		if c == column {
			return true
		}
	}
	return false
}
