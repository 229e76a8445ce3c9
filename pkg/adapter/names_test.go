package adapter

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestJoinTableName(t *testing.T) {
	tests := []struct {
		a, b     string
		expected string
	}{
		{"users", "roles", "roles_users"},
		{"roles", "users", "roles_users"},
		{"music_artists", "music_records", "music_artists_records"},
		{"music_artists", "musicians", "music_artists_musicians"},
		{"a", "a", "a_a"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, JoinTableName(tt.a, tt.b))
		})
	}
}

func TestSingularize(t *testing.T) {
	tests := map[string]string{
		"users":      "user",
		"categories": "category",
		"addresses":  "address",
		"boxes":      "box",
		"matches":    "match",
		"wishes":     "wish",
		"glass":      "glass",
		"statuses":   "status",
		"people":     "person",
		"children":   "child",
		"sheep":      "sheep",
		"equipment":  "equipment",
	}
	for plural, singular := range tests {
		assert.Equal(t, singular, Singularize(plural), plural)
	}
}

func TestForeignKeyColumn(t *testing.T) {
	tests := map[string]string{
		"app.users": "user_id",
		"statuses":  "status_id",
		"people":    "person_id",
		"companies": "company_id",
	}
	for table, column := range tests {
		assert.Equal(t, column, ForeignKeyColumn(table), table)
	}
}

func TestProperty_JoinTableNameIsSymmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	identifier := gen.RegexMatch(`[a-z]{1,6}(_[a-z]{1,6})?`)

	properties.Property("argument order does not matter", prop.ForAll(
		func(a, b string) bool {
			return JoinTableName(a, b) == JoinTableName(b, a)
		},
		identifier, identifier,
	))

	properties.Property("both unprefixed names appear", prop.ForAll(
		func(a, b string) bool {
			name := JoinTableName("x_"+a, "y_"+b)
			return len(name) == len(a)+len(b)+5
		},
		identifier, identifier,
	))

	properties.TestingRun(t)
}
