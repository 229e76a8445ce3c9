// Package config loads kudusql configuration.
//
// Values are layered with koanf, lowest to highest precedence: built-in
// defaults, the kudusql.yaml file, KUDUSQL_ environment variables (a .env
// file next to the config is loaded first), and explicitly set CLI flags.
package config

import (
	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
)

// Default configuration values.
const (
	DefaultDriver        = "impala"
	DefaultStoredAs      = "KUDU"
	DefaultPartitions    = 2
	DefaultStateFile     = ".kudusql/state.db"
	DefaultMigrationsDir = "db/migrate"
	DefaultOutput        = "table"
)

// DefaultDateTimeSuffixes are the column name suffixes inferred as datetime.
var DefaultDateTimeSuffixes = []string{"_at", "_date", "_time"}

// TargetConfig describes the engine endpoint.
type TargetConfig struct {
	Driver   string            `koanf:"driver"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

// DialectConfig tunes SQL rendering.
type DialectConfig struct {
	StoredAs           string   `koanf:"stored_as"`
	DefaultPartitions  int      `koanf:"default_partitions"`
	DateTimeSuffixes   []string `koanf:"datetime_suffixes"`
	MultiInsert        bool     `koanf:"multi_insert"`
	PreparedStatements bool     `koanf:"prepared_statements"`
	SyncKuduTableName  bool     `koanf:"sync_kudu_table_name"`
}

// Config holds all kudusql configuration.
type Config struct {
	Target        TargetConfig  `koanf:"target"`
	Dialect       DialectConfig `koanf:"dialect"`
	StatePath     string        `koanf:"state_path"`
	MigrationsDir string        `koanf:"migrations_dir"`
	Verbose       bool          `koanf:"verbose"`
	OutputFormat  string        `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// AdapterConfig converts the target into the adapter's connection config.
func (c *Config) AdapterConfig() core.AdapterConfig {
	opts := make(map[string]string, len(c.Target.Options))
	for k, v := range c.Target.Options {
		opts[k] = v
	}
	return core.AdapterConfig{
		Driver:   c.Target.Driver,
		Host:     c.Target.Host,
		Port:     c.Target.Port,
		Database: c.Target.Database,
		Username: c.Target.User,
		Password: c.Target.Password,
		Options:  opts,
	}.WithDefaults()
}

// BuildDialect constructs the dialect described by the configuration. The
// target database is used for kudu.table_name synchronization.
func (c *Config) BuildDialect() *dialect.Dialect {
	d := c.Dialect
	return dialect.NewDialect("kudu").
		StoredAs(d.StoredAs).
		Partitions(d.DefaultPartitions).
		Database(c.Target.Database).
		MultiInsert(d.MultiInsert).
		PreparedStatements(d.PreparedStatements).
		SyncKuduTableName(d.SyncKuduTableName).
		DateTimeSuffixes(d.DateTimeSuffixes...).
		Build()
}
