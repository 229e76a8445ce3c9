// Package commands implements the kudusql subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/kudusql/internal/config"
	"github.com/leapstack-labs/kudusql/internal/state"
	"github.com/leapstack-labs/kudusql/pkg/adapter"
	"github.com/leapstack-labs/kudusql/pkg/core"
)

type configKey struct{}

type connectorKey struct{}

// WithConfig returns ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithConnector returns ctx carrying the connector used to reach the
// engine. Without one, commands use adapter.SQLConnector.
func WithConnector(ctx context.Context, connect core.Connector) context.Context {
	return context.WithValue(ctx, connectorKey{}, connect)
}

// CommandContext holds shared resources for command execution.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Adapter *adapter.Kudu
	Store   *state.SQLiteStore
}

// NewCommandContext creates a CommandContext with an adapter whose
// rebuild journal lives in the state store. The cleanup function must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	connect, _ := cmd.Context().Value(connectorKey{}).(core.Connector)
	kudu := adapter.New(cfg.AdapterConfig(), adapter.Options{
		Dialect:   cfg.BuildDialect(),
		Connector: connect,
		Journal:   store,
		Logger:    logger,
	})

	cleanup := func() {
		if err := kudu.Disconnect(); err != nil {
			logger.Warn("failed to disconnect", slog.String("error", err.Error()))
		}
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		Adapter: kudu,
		Store:   store,
	}, cleanup, nil
}

// NewCommandContextWithoutAdapter creates a CommandContext without an
// adapter or state store. Useful for commands that don't need the engine.
func NewCommandContextWithoutAdapter(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(cmd.Context()),
		Logger: config.GetLogger(cmd.Context()),
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if cfg.StatePath != ":memory:" && stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	return store, nil
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when none was loaded.
func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
		return cfg
	}
	res, err := config.Load("", nil)
	if err != nil {
		return &config.Config{StatePath: config.DefaultStateFile, OutputFormat: config.DefaultOutput}
	}
	return res.Config
}
