package schema

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/kudusql/pkg/types"
	"gopkg.in/yaml.v3"
)

// tableFile is the YAML layout of a table definition file.
type tableFile struct {
	Name        string       `yaml:"name"`
	External    bool         `yaml:"external"`
	Temporary   bool         `yaml:"temporary"`
	PrimaryKey  []string     `yaml:"primary_key"`
	PartitionBy []string     `yaml:"partition_by"`
	Partitions  int          `yaml:"partitions"`
	Comment     string       `yaml:"comment"`
	Timestamps  bool         `yaml:"timestamps"`
	Columns     []columnFile `yaml:"columns"`
}

type columnFile struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Limit       int    `yaml:"limit"`
	Precision   int    `yaml:"precision"`
	Scale       int    `yaml:"scale"`
	Null        *bool  `yaml:"null"`
	Default     any    `yaml:"default"`
	PrimaryKey  bool   `yaml:"primary_key"`
	Encoding    string `yaml:"encoding"`
	Compression string `yaml:"compression"`
	BlockSize   int    `yaml:"block_size"`
	Comment     string `yaml:"comment"`
}

// ParseTableYAML builds a table definition from YAML.
//
//	name: users
//	partitions: 4
//	columns:
//	  - {name: id, type: bigint, primary_key: true}
//	  - {name: email, type: string, null: false}
func ParseTableYAML(data []byte) (*TableDefinition, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse table definition: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("table definition has no name")
	}

	td := NewTable(f.Name, PrimaryKeys(f.PrimaryKey...), PartitionBy(f.PartitionBy...), Partitions(f.Partitions), TableComment(f.Comment))
	td.External = f.External
	td.Temporary = f.Temporary

	for _, c := range f.Columns {
		kind, err := types.ParseKind(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		t := types.Type{Kind: kind, Limit: c.Limit, Precision: c.Precision, Scale: c.Scale}

		opts := []ColumnOption{Encoding(c.Encoding), Compression(c.Compression), BlockSize(c.BlockSize), Comment(c.Comment)}
		if c.Null != nil {
			opts = append(opts, Null(*c.Null))
		}
		if c.Default != nil {
			opts = append(opts, Default(c.Default))
		}
		if c.PrimaryKey {
			opts = append(opts, PrimaryKey(), NotNull())
		}
		td.Column(c.Name, t, opts...)
	}
	if f.Timestamps {
		td.Timestamps()
	}

	if err := td.Err(); err != nil {
		return nil, err
	}
	return td, nil
}

// LoadTableFile reads a YAML table definition from disk.
func LoadTableFile(path string) (*TableDefinition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read table definition: %w", err)
	}
	return ParseTableYAML(data)
}
