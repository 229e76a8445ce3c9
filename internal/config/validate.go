package config

import (
	"fmt"
	"strings"
)

// Output formats accepted by the CLI.
var validOutputs = []string{"table", "json", "csv", "markdown"}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.Target.Host == "" {
		return fmt.Errorf("target.host is required")
	}
	if c.Target.Port < 1 || c.Target.Port > 65535 {
		return fmt.Errorf("target.port %d is out of range", c.Target.Port)
	}
	if c.Dialect.DefaultPartitions < 1 {
		return fmt.Errorf("dialect.default_partitions must be at least 1, got %d", c.Dialect.DefaultPartitions)
	}
	if c.OutputFormat != "" && !contains(validOutputs, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(validOutputs, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
