package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sort"
	"strconv"

	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
)

// SQLClient is a core.Client over one pinned database/sql connection.
// Statements run on Conn, which reports driver.ErrBadConn instead of
// retrying it on another pooled connection.
type SQLClient struct {
	DB     *sql.DB
	Conn   *sql.Conn
	Logger *slog.Logger
}

var _ core.Client = (*SQLClient)(nil)

// NewSQLClient wraps db. The pool is pinned to a single connection so that
// session state such as USE survives between statements.
func NewSQLClient(db *sql.DB, logger *slog.Logger) *SQLClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &SQLClient{DB: db, Logger: logger}
}

// Close releases the pinned connection and closes the database handle.
func (c *SQLClient) Close() error {
	if c.DB == nil {
		return nil
	}
	c.Logger.Debug("closing database connection")
	if c.Conn != nil {
		// A connection dropped after a bad-connection error is already done.
		if err := c.Conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			c.Logger.Warn("failed to release connection", slog.String("error", err.Error()))
		}
		c.Conn = nil
	}
	db := c.DB
	c.DB = nil
	return db.Close()
}

// session returns the pinned connection, taking it from the pool on first use.
func (c *SQLClient) session(ctx context.Context) (*sql.Conn, error) {
	if c.DB == nil {
		return nil, fmt.Errorf("%w: database connection not established", core.ErrNotConnected)
	}
	if c.Conn == nil {
		conn, err := c.DB.Conn(ctx)
		if err != nil {
			return nil, err
		}
		c.Conn = conn
	}
	return c.Conn, nil
}

// Execute runs a statement that doesn't return rows.
func (c *SQLClient) Execute(ctx context.Context, sqlStr string) error {
	conn, err := c.session(ctx)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, sqlStr); err != nil {
		return err
	}
	return nil
}

// Query runs a statement and reads every row into an ordered field map.
func (c *SQLClient) Query(ctx context.Context, sqlStr string) ([]core.Row, error) {
	conn, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []core.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(columns))
		for i, name := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = append([]byte(nil), b...)
			}
			row[i] = core.Field{Name: name, Value: v}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SQLConnector returns a core.Connector that opens cfg.Driver through
// database/sql. The driver must be registered by the program, e.g. by
// importing github.com/bippio/go-impala.
func SQLConnector(logger *slog.Logger) core.Connector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(ctx context.Context, cfg core.AdapterConfig) (core.Client, error) {
		cfg = cfg.WithDefaults()
		db, err := sql.Open(cfg.Driver, DSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s driver: %w", cfg.Driver, err)
		}
		client := NewSQLClient(db, logger)
		conn, err := client.session(ctx)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		if cfg.Database != "" {
			if err := client.Execute(ctx, "USE "+dialect.QuoteTableName(cfg.Database)); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("failed to use database %s: %w", cfg.Database, err)
			}
		}
		return client, nil
	}
}

// DSN renders cfg as an impala:// connection URL. Options become query
// parameters in sorted order.
func DSN(cfg core.AdapterConfig) string {
	cfg = cfg.WithDefaults()
	u := url.URL{
		Scheme: "impala",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/",
	}
	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := url.Values{}
	for _, k := range keys {
		q.Set(k, cfg.Options[k])
	}
	u.RawQuery = q.Encode()
	return u.String()
}
