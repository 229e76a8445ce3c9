package adapter

import (
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
)

// JoinTableName derives the join table name of two tables: both names in
// lexical order, joined by "_", with a shared "prefix_" written once.
//
//	JoinTableName("users", "roles")                  // roles_users
//	JoinTableName("music_artists", "music_records")  // music_artists_records
func JoinTableName(table1, table2 string) string {
	names := []string{table1, table2}
	sort.Strings(names)
	a, b := names[0], names[1]

	prefix := ""
	for i := 0; i < len(a) && i < len(b) && a[i] == b[i]; i++ {
		if a[i] == '_' {
			prefix = a[:i+1]
		}
	}
	return prefix + a[len(prefix):] + "_" + b[len(prefix):]
}

// ForeignKeyColumn returns the <singular>_id column referencing table.
func ForeignKeyColumn(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		table = table[i+1:]
	}
	return Singularize(table) + "_id"
}

// Singularize returns the singular form of an English noun, including
// irregular and uncountable words ("people" -> "person", "sheep" -> "sheep").
func Singularize(word string) string {
	return inflection.Singular(word)
}
