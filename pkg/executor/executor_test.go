package executor

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/leapstack-labs/kudusql/internal/testutil"
	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/dialect"
	"github.com/leapstack-labs/kudusql/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T, engine *testutil.FakeEngine) *Executor {
	t.Helper()
	return New(engine.Connector(), core.AdapterConfig{}, nil, testutil.NewTestLogger(t))
}

func TestExecutor_Lifecycle(t *testing.T) {
	engine := testutil.NewFakeEngine()
	e := newExecutor(t, engine)
	ctx := context.Background()

	assert.False(t, e.IsConnected())
	assert.Equal(t, core.DefaultHost, e.Config().Host)
	assert.Equal(t, core.DefaultPort, e.Config().Port)

	require.NoError(t, e.Connect(ctx))
	require.NoError(t, e.Connect(ctx))
	assert.True(t, e.IsConnected())
	assert.Equal(t, 1, engine.Connects)

	require.NoError(t, e.Reconnect(ctx))
	assert.Equal(t, 2, engine.Connects)
	assert.Equal(t, 1, engine.Closes)

	require.NoError(t, e.Disconnect())
	require.NoError(t, e.Disconnect())
	assert.False(t, e.IsConnected())
	assert.Equal(t, 2, engine.Closes)
}

func TestExecutor_ConnectError(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.ConnectErr = errors.New("auth failed")
	e := newExecutor(t, engine)

	err := e.Execute(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to 127.0.0.1:28050")
	assert.False(t, e.IsConnected())

	e = New(nil, core.AdapterConfig{}, nil, nil)
	assert.ErrorIs(t, e.Connect(context.Background()), core.ErrNotConnected)
}

func TestExecutor_RetryOnce(t *testing.T) {
	tests := []struct {
		name         string
		failures     []error
		expectErr    error
		expectConns  int
		expectCalled int
	}{
		{
			name:         "success without retry",
			failures:     nil,
			expectConns:  1,
			expectCalled: 1,
		},
		{
			name:         "transport failure then success",
			failures:     []error{driver.ErrBadConn},
			expectConns:  2,
			expectCalled: 1,
		},
		{
			name:         "two transport failures propagate",
			failures:     []error{io.EOF, io.EOF},
			expectErr:    core.ErrTransport,
			expectConns:  2,
			expectCalled: 0,
		},
		{
			name:         "engine error is not retried",
			failures:     []error{errors.New("AnalysisException: Could not resolve table reference")},
			expectErr:    core.ErrNonTransientEngine,
			expectConns:  1,
			expectCalled: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := testutil.NewFakeEngine()
			engine.FailNext(tt.failures...)
			e := newExecutor(t, engine)

			err := e.Execute(context.Background(), "INSERT INTO t VALUES (1)")
			if tt.expectErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectConns, engine.Connects, "retry count must be exactly one reconnect")
			assert.Len(t, engine.Executed(), tt.expectCalled)
		})
	}
}

func TestExecutor_LogsStatementsAndLostConnections(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.FailNext(driver.ErrBadConn)
	logger, logs := testutil.NewRecordingLogger(t)
	e := New(engine.Connector(), core.AdapterConfig{}, nil, logger)

	require.NoError(t, e.Execute(context.Background(), "DROP TABLE t_temp"))

	executes := logs.Find("execute")
	require.Len(t, executes, 1, "logged once, not per attempt")
	assert.Equal(t, slog.LevelDebug, executes[0].Level)
	assert.Equal(t, "DROP TABLE t_temp", executes[0].Attrs["sql"])

	lost := logs.Find("connection lost")
	require.Len(t, lost, 1)
	assert.Equal(t, slog.LevelWarn, lost[0].Level)
	assert.Equal(t, "1", lost[0].Attrs["attempt"])
	assert.Contains(t, lost[0].Attrs["error"], "bad connection")
}

func TestExecutor_SecondFailureUnmodified(t *testing.T) {
	engine := testutil.NewFakeEngine()
	second := errors.New("write: broken pipe")
	engine.FailNext(io.EOF, second)
	e := newExecutor(t, engine)

	_, err := e.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, second)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestExecutor_QueryMaterializes(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.On("SELECT id, name FROM users",
		testutil.Row("id", int64(1), "name", []byte("ann")),
		testutil.Row("name", "bob", "id", int64(2)),
	)
	e := newExecutor(t, engine)

	res, err := e.Query(context.Background(), "SELECT id, name FROM users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, [][]any{{int64(1), "ann"}, {int64(2), "bob"}}, res.Rows)
}

func TestExecutor_EmptyQuery(t *testing.T) {
	engine := testutil.NewFakeEngine()
	e := newExecutor(t, engine)

	res, err := e.Query(context.Background(), "SELECT * FROM empty")
	require.NoError(t, err)
	assert.Empty(t, res.Columns)
	assert.Empty(t, res.Rows)
	assert.True(t, res.Empty())
}

func TestExecutor_ExecQueryBinds(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.On("SELECT * FROM users WHERE name = 'o\\'neil' AND age > 30 AND note = '?'",
		testutil.Row("id", int64(7)))
	e := newExecutor(t, engine)
	ctx := context.Background()

	res, err := e.ExecQuery(ctx, "SELECT * FROM users WHERE name = ? AND age > ? AND note = '?'", "o'neil", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	_, err = e.ExecQuery(ctx, "SELECT * FROM users WHERE id = ?")
	assert.ErrorIs(t, err, core.ErrBindArityMismatch)

	_, err = e.ExecQuery(ctx, "SELECT 1", 1)
	assert.ErrorIs(t, err, core.ErrBindArityMismatch)
}

func TestExecutor_PreparedStatementsRejectBinds(t *testing.T) {
	engine := testutil.NewFakeEngine()
	d := dialect.NewDialect("kudu").PreparedStatements(true).Build()
	e := New(engine.Connector(), core.AdapterConfig{}, d, nil)

	_, err := e.ExecQuery(context.Background(), "SELECT ?", 1)
	assert.ErrorIs(t, err, core.ErrUnsupportedOperation)
}

func TestExecutor_DMLSentinel(t *testing.T) {
	engine := testutil.NewFakeEngine()
	e := newExecutor(t, engine)
	ctx := context.Background()

	n, err := e.ExecInsert(ctx, "INSERT INTO t (id) VALUES (?)", 5)
	require.NoError(t, err)
	assert.Equal(t, AffectedSentinel, n)

	n, err = e.ExecUpdate(ctx, "UPDATE t SET a = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = e.ExecDelete(ctx, "DELETE FROM t")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, []string{"INSERT INTO t (id) VALUES (5)", "UPDATE t SET a = 1", "DELETE FROM t"}, engine.Executed())
}

func TestExecutor_QueryTyped(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.On("SELECT * FROM events",
		testutil.Row("id", "3", "created_at", int64(0), "active", "true", "amount", "12.50"))
	e := newExecutor(t, engine)

	res, err := e.QueryTyped(context.Background(), "SELECT * FROM events", map[string]types.Type{
		"id":         types.Of(types.BigInt),
		"created_at": types.Of(types.DateTime),
		"active":     types.Of(types.Boolean),
		"amount":     types.DecimalOf(10, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), time.Unix(0, 0).UTC(), true, "12.50"}, res.Rows[0])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"bad conn", driver.ErrBadConn, core.ErrTransport},
		{"eof", io.EOF, core.ErrTransport},
		{"closed message", errors.New("thrift: connection closed by peer"), core.ErrTransport},
		{"engine", errors.New("AnalysisException: syntax error"), core.ErrNonTransientEngine},
		{"already classified", &core.TransportError{Err: io.EOF}, core.ErrTransport},
		{"context", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify("SELECT 1", tt.err), tt.expected)
		})
	}

	assert.NoError(t, Classify("", nil))

	var eerr *core.EngineError
	require.ErrorAs(t, Classify("SELECT x", errors.New("boom")), &eerr)
	assert.Equal(t, "SELECT x", eerr.SQL)
}
