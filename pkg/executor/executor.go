// Package executor owns the single engine connection of an adapter and
// dispatches statements through it.
//
// Every operation goes through withRetry: a transport failure triggers one
// reconnect followed by one retry of the same operation. Engine errors are
// never retried. An Executor is not safe for concurrent use.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/types"
)

// AffectedSentinel is reported by ExecInsert, ExecUpdate and ExecDelete.
// The engine does not return row counts for DML.
const AffectedSentinel int64 = 1

// Executor dispatches SQL over one core.Client.
type Executor struct {
	connect core.Connector
	cfg     core.AdapterConfig
	dialect *dialect.Dialect
	logger  *slog.Logger

	client core.Client
}

// New creates an executor. It does not connect; the first operation or an
// explicit Connect does.
func New(connect core.Connector, cfg core.AdapterConfig, d *dialect.Dialect, logger *slog.Logger) *Executor {
	if d == nil {
		d = dialect.Kudu()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		connect: connect,
		cfg:     cfg.WithDefaults(),
		dialect: d,
		logger:  logger,
	}
}

// Config returns the connection configuration with defaults applied.
func (e *Executor) Config() core.AdapterConfig {
	return e.cfg
}

// Connect opens the client. Connecting an already connected executor is a no-op.
func (e *Executor) Connect(ctx context.Context) error {
	if e.client != nil {
		return nil
	}
	if e.connect == nil {
		return fmt.Errorf("%w: no connector configured", core.ErrNotConnected)
	}
	client, err := e.connect(ctx, e.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s:%d: %w", e.cfg.Host, e.cfg.Port, Classify("", err))
	}
	e.client = client
	e.logger.Debug("connected", slog.String("host", e.cfg.Host), slog.Int("port", e.cfg.Port))
	return nil
}

// Disconnect closes the client if one is open.
func (e *Executor) Disconnect() error {
	if e.client == nil {
		return nil
	}
	client := e.client
	e.client = nil
	e.logger.Debug("closing connection")
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Reconnect disconnects and connects again. A close failure on the old
// handle is logged and does not stop the new connection.
func (e *Executor) Reconnect(ctx context.Context) error {
	if err := e.Disconnect(); err != nil {
		e.logger.Warn("close before reconnect failed", slog.String("error", err.Error()))
	}
	return e.Connect(ctx)
}

// IsConnected reports whether a client handle is open.
func (e *Executor) IsConnected() bool {
	return e.client != nil
}

// Execute runs a statement that returns no rows.
func (e *Executor) Execute(ctx context.Context, sql string) error {
	e.logger.Debug("execute", slog.String("sql", sql))
	return e.withRetry(ctx, sql, func(c core.Client) error {
		return c.Execute(ctx, sql)
	})
}

// QueryRows runs a statement and returns the raw ordered field maps.
func (e *Executor) QueryRows(ctx context.Context, sql string) ([]core.Row, error) {
	e.logger.Debug("query", slog.String("sql", sql))
	var rows []core.Row
	err := e.withRetry(ctx, sql, func(c core.Client) error {
		var qerr error
		rows, qerr = c.Query(ctx, sql)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Query runs a statement and materializes its rows.
func (e *Executor) Query(ctx context.Context, sql string) (*core.Result, error) {
	rows, err := e.QueryRows(ctx, sql)
	if err != nil {
		return nil, err
	}
	return Materialize(rows), nil
}

// ExecQuery substitutes binds into sql and runs it as a query.
func (e *Executor) ExecQuery(ctx context.Context, sql string, binds ...any) (*core.Result, error) {
	bound, err := e.bind(sql, binds)
	if err != nil {
		return nil, err
	}
	return e.Query(ctx, bound)
}

// ExecInsert runs an INSERT and reports AffectedSentinel.
func (e *Executor) ExecInsert(ctx context.Context, sql string, binds ...any) (int64, error) {
	return e.execDML(ctx, sql, binds)
}

// ExecUpdate runs an UPDATE and reports AffectedSentinel.
func (e *Executor) ExecUpdate(ctx context.Context, sql string, binds ...any) (int64, error) {
	return e.execDML(ctx, sql, binds)
}

// ExecDelete runs a DELETE and reports AffectedSentinel.
func (e *Executor) ExecDelete(ctx context.Context, sql string, binds ...any) (int64, error) {
	return e.execDML(ctx, sql, binds)
}

func (e *Executor) execDML(ctx context.Context, sql string, binds []any) (int64, error) {
	bound, err := e.bind(sql, binds)
	if err != nil {
		return 0, err
	}
	if err := e.Execute(ctx, bound); err != nil {
		return 0, err
	}
	return AffectedSentinel, nil
}

// QueryTyped runs a query and casts the named columns through the
// dialect's type registry. Columns without an entry are left as returned.
func (e *Executor) QueryTyped(ctx context.Context, sql string, columnTypes map[string]types.Type) (*core.Result, error) {
	res, err := e.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	return CastResult(res, columnTypes, e.dialect.Types())
}

func (e *Executor) bind(sql string, binds []any) (string, error) {
	if e.dialect.PreparedStatements {
		if len(binds) > 0 {
			return "", core.Unsupported("server_side_binds", "the configured client does not accept bind parameters")
		}
		return sql, nil
	}
	if len(binds) == 0 && dialect.CountPlaceholders(sql) == 0 {
		return sql, nil
	}
	return dialect.SubstituteBinds(sql, binds)
}

// withRetry runs op on the current client, connecting first when needed.
// On a transport failure it reconnects once and runs op exactly once more,
// with no delay in between.
func (e *Executor) withRetry(ctx context.Context, sql string, op func(core.Client) error) error {
	if err := e.Connect(ctx); err != nil {
		return err
	}

	attempt := 0
	return retry.Do(ctx, retryOnce(), func(ctx context.Context) error {
		if attempt > 0 {
			if err := e.Reconnect(ctx); err != nil {
				return fmt.Errorf("reconnect after transport failure: %w", err)
			}
		}
		attempt++

		err := Classify(sql, op(e.client))
		if errors.Is(err, core.ErrTransport) {
			e.logger.Warn("connection lost", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
}

func retryOnce() retry.Backoff {
	immediate := retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	return retry.WithMaxRetries(1, immediate)
}
