package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/kudusql/internal/config"
)

// keyDescriptions documents each key of config.Defaults. Keys missing here
// are still listed, with an empty description.
var keyDescriptions = map[string]string{
	"state_path":     "Local SQLite database holding the rebuild journal",
	"migrations_dir": "Directory scanned for versioned migration files",
	"output":         "Output format: table, json, csv, markdown",
	"verbose":        "Debug logging on stderr",

	"target.driver":   "database/sql driver name",
	"target.host":     "Impala daemon host",
	"target.port":     "Impala daemon port",
	"target.database": "Database selected after connecting; also used to name Kudu tables",
	"target.user":     "User name",
	"target.password": "Password; ${VAR} references are expanded",

	"dialect.stored_as":            "Storage clause of created tables",
	"dialect.default_partitions":   "Hash partitions when a table names none",
	"dialect.datetime_suffixes":    "Column name suffixes read back as datetime",
	"dialect.multi_insert":         "Insert several rows per statement",
	"dialect.prepared_statements":  "Send binds to the driver instead of inlining literals",
	"dialect.sync_kudu_table_name": "Rename the underlying Kudu table with the Impala table",
}

// ConfigField is one documented config key.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Description string
}

// section returns the part of the key before the first dot, or "".
func (f ConfigField) section() string {
	if i := strings.IndexByte(f.Key, '.'); i > 0 {
		return f.Key[:i]
	}
	return ""
}

// configFields lists every key the loader has a default for, sorted by key.
// target.options has no default and is appended by hand.
func configFields() []ConfigField {
	defaults := config.Defaults()
	fields := make([]ConfigField, 0, len(defaults)+1)
	for key, value := range defaults {
		fields = append(fields, ConfigField{
			Key:         key,
			Type:        typeName(value),
			Default:     defaultText(value),
			Description: keyDescriptions[key],
		})
	}
	fields = append(fields, ConfigField{
		Key:         "target.options",
		Type:        "map[string]string",
		Description: "Extra driver options appended to the DSN query string",
	})
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

func typeName(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case int:
		return "int"
	case []string:
		return "[]string"
	default:
		return "string"
	}
}

func defaultText(v any) string {
	switch v := v.(type) {
	case []string:
		return strings.Join(v, ", ")
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "kudusql configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("kudusql reads " + InlineCode(config.ConfigFileName) + " from the current directory or the nearest parent. " +
		"Values are layered: defaults, the config file, the environment, then command-line flags. " +
		"Nested keys are set from the environment with a double underscore, as in " +
		InlineCode(config.EnvVar("dialect.default_partitions")) + ".")

	sections := []struct{ key, title string }{
		{"", "Project Settings"},
		{"target", "Target"},
		{"dialect", "Dialect"},
	}
	headers := []string{"Key", "Type", "Default", "Environment", "Description"}
	fields := configFields()
	for _, sec := range sections {
		w.Header(2, sec.title)
		var rows [][]string
		for _, f := range fields {
			if f.section() != sec.key {
				continue
			}
			def := "-"
			if f.Default != "" {
				def = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Key), f.Type, def, InlineCode(config.EnvVar(f.Key)), f.Description})
		}
		w.Table(headers, rows)
	}

	w.Header(2, "Example")
	w.CodeBlock("yaml", `target:
  host: impala.internal
  port: 21050
  database: analytics
  password: ${IMPALA_PASSWORD}
  options:
    auth: ldap
dialect:
  default_partitions: 8
migrations_dir: db/migrate`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0o600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
