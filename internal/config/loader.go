package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/kudusql/pkg/core"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "kudusql.yaml"
	ConfigFileNameAlt = "kudusql.yml"
)

// EnvPrefix prefixes every environment variable read by the loader.
// Nested keys use a double underscore: KUDUSQL_TARGET__HOST.
const EnvPrefix = "KUDUSQL_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps CLI flag names onto config keys. Flags not listed map to
// their snake_case name.
var flagKeys = map[string]string{
	"host":     "target.host",
	"port":     "target.port",
	"database": "target.database",
	"user":     "target.user",
	"password": "target.password",
	"driver":   "target.driver",
	"state":    "state_path",
}

// Result is a loaded configuration and where it came from.
type Result struct {
	Config   *Config
	FileUsed string
}

// FlagKey returns the config key a root command flag sets.
func FlagKey(flag string) string {
	if key, ok := flagKeys[flag]; ok {
		return key
	}
	return strings.ReplaceAll(flag, "-", "_")
}

// EnvVar returns the environment variable that sets key:
// target.host is read from KUDUSQL_TARGET__HOST.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// Defaults returns the default value of every config key.
func Defaults() map[string]any {
	return map[string]any{
		"target.driver":                DefaultDriver,
		"target.host":                  core.DefaultHost,
		"target.port":                  core.DefaultPort,
		"target.database":              "",
		"target.user":                  "",
		"target.password":              "",
		"dialect.stored_as":            DefaultStoredAs,
		"dialect.default_partitions":   DefaultPartitions,
		"dialect.datetime_suffixes":    DefaultDateTimeSuffixes,
		"dialect.multi_insert":         true,
		"dialect.prepared_statements":  false,
		"dialect.sync_kudu_table_name": true,
		"state_path":                   DefaultStateFile,
		"migrations_dir":               DefaultMigrationsDir,
		"verbose":                      false,
		"output":                       DefaultOutput,
	}
}

// Load loads configuration from defaults, the config file, the environment
// and flags. Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Result, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	projectRoot := ""
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			if root := findProjectRootUpward(cwd); root != "" {
				projectRoot = root
				cfgFile = findConfigFile(root)
			}
		}
	}
	if projectRoot == "" {
		if cfgFile != "" {
			abs, err := filepath.Abs(cfgFile)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve config path: %w", err)
			}
			projectRoot = filepath.Dir(abs)
		} else {
			projectRoot, _ = os.Getwd()
		}
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := loadDotEnv(filepath.Join(projectRoot, ".env")); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return FlagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	cfg.MigrationsDir = resolvePathRelativeTo(cfg.MigrationsDir, projectRoot)
	expandTargetEnvVars(&cfg.Target)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Result{Config: &cfg, FileUsed: cfgFile}, nil
}

// envKey maps KUDUSQL_TARGET__HOST to target.host.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile returns the config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a kudusql config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns. Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

func expandTargetEnvVars(t *TargetConfig) {
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	t.User = expandEnvVars(t.User)
	t.Password = expandEnvVars(t.Password)
	for k, v := range t.Options {
		t.Options[k] = expandEnvVars(v)
	}
}

// loggerKey is used to store the logger in a command context.
type loggerKey struct{}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
