package core

import (
	"context"
)

// Default connection settings for the Impala gateway.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 28050
)

// Client is the outbound capability the adapter needs from an engine
// connection. Implementations own exactly one connection handle.
type Client interface {
	// Execute runs a statement that doesn't return rows.
	Execute(ctx context.Context, sql string) error

	// Query runs a statement and returns every row as an ordered field map.
	Query(ctx context.Context, sql string) ([]Row, error)

	// Close releases the connection.
	Close() error
}

// Connector opens a new Client for the given configuration.
type Connector func(ctx context.Context, cfg AdapterConfig) (Client, error)

// AdapterConfig holds configuration for connecting to the engine.
type AdapterConfig struct {
	Driver   string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
}

// WithDefaults returns a copy of the config with host and port defaults applied.
func (c AdapterConfig) WithDefaults() AdapterConfig {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Driver == "" {
		c.Driver = "impala"
	}
	return c
}

// Field is a single named value inside a Row.
type Field struct {
	Name  string
	Value any
}

// Row is an ordered field map as returned by the engine client.
type Row []Field

// Keys returns the field names in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Name
	}
	return keys
}

// Get returns the value stored under name.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the value under name formatted as a string, or "" when
// the field is missing or NULL.
func (r Row) String(name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return toString(v)
	}
}
