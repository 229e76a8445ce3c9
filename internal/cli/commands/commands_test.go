package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/kudusql/internal/config"
	"github.com/leapstack-labs/kudusql/internal/testutil"
	"github.com/leapstack-labs/kudusql/pkg/core"
	"github.com/leapstack-labs/kudusql/pkg/rebuild"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Target: config.TargetConfig{Driver: "impala", Host: "127.0.0.1", Port: 28050},
		Dialect: config.DialectConfig{
			StoredAs:          config.DefaultStoredAs,
			DefaultPartitions: config.DefaultPartitions,
			DateTimeSuffixes:  config.DefaultDateTimeSuffixes,
			MultiInsert:       true,
		},
		StatePath:     filepath.Join(dir, "state", "state.db"),
		MigrationsDir: filepath.Join(dir, "db", "migrate"),
		OutputFormat:  "csv",
		ProjectRoot:   dir,
	}
}

// runCommand executes cmd with args against engine and returns stdout.
func runCommand(t *testing.T, cfg *config.Config, engine *testutil.FakeEngine, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	ctx := WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	ctx = WithConnector(ctx, engine.Connector())

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func usersEngine() *testutil.FakeEngine {
	engine := testutil.NewFakeEngine()
	engine.On("SHOW TABLES", testutil.Row("name", "users"), testutil.Row("name", "orders"))
	engine.On("DESCRIBE users",
		testutil.DescribeRow("id", "bigint", true, false, ""),
		testutil.DescribeRow("name", "string", false, true, ""),
	)
	return engine
}

func TestTablesCommand(t *testing.T) {
	out, err := runCommand(t, testConfig(t), usersEngine(), NewTablesCommand())
	require.NoError(t, err)
	assert.Equal(t, "name\nusers\norders\n", out)
}

func TestDescribeCommand(t *testing.T) {
	out, err := runCommand(t, testConfig(t), usersEngine(), NewDescribeCommand(), "users")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,type,sql_type,null,default,primary_key", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "id,"))
	assert.True(t, strings.HasSuffix(lines[1], ",false,NULL,true"), lines[1])

	_, err = runCommand(t, testConfig(t), usersEngine(), NewDescribeCommand(), "missing")
	assert.ErrorContains(t, err, "does not exist")
}

func TestQueryCommand(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.On("SELECT id, name FROM users",
		testutil.Row("id", int64(1), "name", "ada"),
		testutil.Row("id", int64(2), "name", nil),
	)

	t.Run("csv", func(t *testing.T) {
		out, err := runCommand(t, testConfig(t), engine, NewQueryCommand(), "SELECT id, name FROM users;")
		require.NoError(t, err)
		assert.Equal(t, "id,name\n1,ada\n2,NULL\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCommand(t, testConfig(t), engine, NewQueryCommand(), "--format", "json", "SELECT id, name FROM users")
		require.NoError(t, err)
		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "ada", rows[0]["name"])
		assert.Nil(t, rows[1]["name"])
	})

	t.Run("table", func(t *testing.T) {
		out, err := runCommand(t, testConfig(t), engine, NewQueryCommand(), "--format", "table", "SELECT id, name FROM users")
		require.NoError(t, err)
		assert.Contains(t, out, "ada")
		assert.Contains(t, out, "(2 rows)")
	})

	t.Run("input file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "q.sql")
		require.NoError(t, os.WriteFile(path, []byte("SELECT id, name FROM users;\n"), 0o600))
		out, err := runCommand(t, testConfig(t), engine, NewQueryCommand(), "--input", path)
		require.NoError(t, err)
		assert.Contains(t, out, "1,ada")
	})

	t.Run("engine error", func(t *testing.T) {
		failing := testutil.NewFakeEngine()
		failing.FailOn["SELECT"] = errors.New("AnalysisException: table not found")
		_, err := runCommand(t, testConfig(t), failing, NewQueryCommand(), "SELECT 1")
		assert.ErrorContains(t, err, "query failed")
	})
}

func TestRenderResult_Markdown(t *testing.T) {
	res := &core.Result{Columns: []string{"a", "b"}, Rows: [][]any{{1, "x,y"}}}

	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, res, "markdown"))
	assert.Equal(t, "| a | b |\n| --- | --- |\n| 1 | x,y |\n", buf.String())

	buf.Reset()
	require.NoError(t, renderResult(&buf, res, "csv"))
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())

	assert.Equal(t, "(1,234 rows)", rowCount(1234))
	assert.Equal(t, "(1 row)", rowCount(1))
}

func TestExecCommand(t *testing.T) {
	engine := testutil.NewFakeEngine()
	out, err := runCommand(t, testConfig(t), engine, NewExecCommand(), "INSERT INTO users VALUES (1, 'ada');")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)
	assert.Equal(t, []string{"INSERT INTO users VALUES (1, 'ada')"}, engine.Executed())
}

const usersYAML = `
name: users
partitions: 4
columns:
  - {name: id, type: bigint, primary_key: true}
  - {name: email, type: string, null: false}
`

func TestDDLRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersYAML), 0o600))

	engine := testutil.NewFakeEngine()
	out, err := runCommand(t, testConfig(t), engine, NewDDLCommand(), "render", "-f", path)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE users (id BIGINT NOT NULL, email STRING NOT NULL, PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 4 STORED AS KUDU;\n",
		out)
	assert.Zero(t, engine.Connects, "rendering does not connect")
}

func TestTableCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersYAML), 0o600))

	engine := testutil.NewFakeEngine()
	cfg := testConfig(t)

	_, err := runCommand(t, cfg, engine, NewTableCommand(), "create", "-f", path, "--force")
	require.NoError(t, err)
	_, err = runCommand(t, cfg, engine, NewTableCommand(), "drop", "users", "--if-exists")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DROP TABLE IF EXISTS users",
		"CREATE TABLE users (id BIGINT NOT NULL, email STRING NOT NULL, PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 4 STORED AS KUDU",
		"DROP TABLE IF EXISTS users",
	}, engine.Executed())
}

func TestColumnCommands(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		engine := usersEngine()
		_, err := runCommand(t, testConfig(t), engine, NewColumnCommand(), "add", "users", "age", "integer", "--not-null", "--default", "0")
		require.NoError(t, err)
		assert.Equal(t, []string{"ALTER TABLE users ADD COLUMN age INT NOT NULL DEFAULT 0"}, engine.Executed())
	})

	t.Run("invalid default", func(t *testing.T) {
		_, err := runCommand(t, testConfig(t), usersEngine(), NewColumnCommand(), "add", "users", "age", "integer", "--default", "old")
		assert.ErrorContains(t, err, "invalid default")
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := runCommand(t, testConfig(t), usersEngine(), NewColumnCommand(), "add", "users", "age", "money")
		assert.ErrorContains(t, err, "unknown logical type")
	})

	t.Run("remove primary key is refused", func(t *testing.T) {
		engine := usersEngine()
		_, err := runCommand(t, testConfig(t), engine, NewColumnCommand(), "remove", "users", "id")
		require.ErrorIs(t, err, core.ErrCannotModifyPrimaryKey)
		assert.Equal(t, []string{"DESCRIBE users"}, engine.Executed())
	})

	t.Run("remove", func(t *testing.T) {
		engine := usersEngine()
		out, err := runCommand(t, testConfig(t), engine, NewColumnCommand(), "remove", "users", "name")
		require.NoError(t, err)
		assert.Contains(t, out, "Removed 1 column(s) from users")
		assert.Contains(t, engine.Executed(), "ALTER TABLE users DROP COLUMN name")
	})
}

func TestMigrateCommands(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.MigrationsDir, 0o750))
	for _, name := range []string{"1_create_users.sql", "2_add_email.sql", "3_add_orders.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.MigrationsDir, name), nil, 0o600))
	}

	engine := testutil.NewFakeEngine()
	engine.On("SHOW TABLES", testutil.Row("name", "schema_migrations"))
	engine.On("SELECT version FROM schema_migrations", testutil.Row("version", "1"))

	out, err := runCommand(t, cfg, engine, NewMigrateCommand(), "status")
	require.NoError(t, err)
	assert.Equal(t, "version,file,status\n1,1_create_users.sql,applied\n2,2_add_email.sql,pending\n3,3_add_orders.sql,pending\n", out)

	_, err = runCommand(t, cfg, engine, NewMigrateCommand(), "mark", "3")
	require.NoError(t, err)
	executed := engine.Executed()
	assert.Equal(t, "INSERT INTO schema_migrations (version) VALUES ('3'), ('2')", executed[len(executed)-1])

	_, err = runCommand(t, cfg, engine, NewMigrateCommand(), "mark", "zero")
	assert.ErrorContains(t, err, "invalid version")
}

func TestMigrationStatus_OrphanVersions(t *testing.T) {
	res := migrationStatus([]string{"db/1_a.sql"}, []int64{1, 7})
	assert.Equal(t, [][]any{{int64(1), "1_a.sql", "applied"}, {int64(7), "", "applied"}}, res.Rows)
}

func TestRebuildCommands(t *testing.T) {
	cfg := testConfig(t)
	engine := usersEngine()

	// Adding a key column with a default runs a journaled rebuild; the
	// rename of the original table fails once.
	engine.FailOn["ALTER TABLE users RENAME TO users_temp"] = errors.New("transient catalog error")
	_, err := runCommand(t, cfg, engine, NewColumnCommand(), "add", "users", "tenant", "bigint", "--pk", "--default", "1")
	require.Error(t, err)

	out, err := runCommand(t, cfg, engine, NewRebuildCommand(), "status")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], ",users,tenant,add_primary_key,failed,")
	id := strings.SplitN(lines[1], ",", 2)[0]

	out, err = runCommand(t, cfg, engine, NewRebuildCommand(), "status", id)
	require.NoError(t, err)
	assert.Contains(t, out, ",failed,")

	delete(engine.FailOn, "ALTER TABLE users RENAME TO users_temp")
	out, err = runCommand(t, cfg, engine, NewRebuildCommand(), "resume", id)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = runCommand(t, cfg, engine, NewRebuildCommand(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, ",completed,")
}

func TestRebuildSteps_PartialStep(t *testing.T) {
	rec := &rebuild.Record{
		Plan: rebuild.Plan{Steps: []rebuild.Step{
			{Name: "create_redefined", Statements: []string{"CREATE"}},
			{Name: "park_original", Statements: []string{"RENAME", "SET TBLPROPERTIES"}},
			{Name: "drop_temp", Statements: []string{"DROP"}},
		}},
		NextStep:      1,
		NextStatement: 1,
		Status:        rebuild.StatusFailed,
	}

	assert.Equal(t, [][]any{
		{1, "create_redefined", "done", "1/1"},
		{2, "park_original", "failed", "1/2"},
		{3, "drop_temp", "pending", "0/1"},
	}, rebuildSteps(rec).Rows)
}

func TestRebuildCleanupCommand(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.On("SHOW TABLES", testutil.Row("name", "users"), testutil.Row("name", "users_temp"))

	_, err := runCommand(t, testConfig(t), engine, NewRebuildCommand(), "cleanup")
	require.NoError(t, err)
	assert.Equal(t, []string{"SHOW TABLES", "DROP TABLE users_temp"}, engine.Executed())
}

func TestDoctorCommand(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		engine := testutil.NewFakeEngine()
		engine.On("SHOW TABLES", testutil.Row("name", "schema_migrations"))

		out, err := runCommand(t, testConfig(t), engine, NewDoctorCommand(), "--format", "json")
		require.NoError(t, err)

		var report DoctorOutput
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Zero(t, report.IssueCount, out)
		assert.Len(t, report.HealthChecks, 6)
	})

	t.Run("leftovers and unreachable", func(t *testing.T) {
		engine := testutil.NewFakeEngine()
		engine.On("SHOW TABLES", testutil.Row("name", "orders_temp"))

		out, err := runCommand(t, testConfig(t), engine, NewDoctorCommand())
		require.NoError(t, err)
		assert.Contains(t, out, "Rebuilds")
		assert.Contains(t, out, "leftover table orders_temp")
		assert.Contains(t, out, "schema_migrations does not exist yet")

		down := testutil.NewFakeEngine()
		down.ConnectErr = errors.New("connection refused")
		out, err = runCommand(t, testConfig(t), down, NewDoctorCommand(), "--format", "markdown")
		require.NoError(t, err)
		assert.Contains(t, out, "**[ERROR]** E01: Connectivity")
		assert.Contains(t, out, "skipped: engine unreachable")
	})
}

func TestCommandMetadata(t *testing.T) {
	for _, cmd := range []*cobra.Command{
		NewQueryCommand(), NewTablesCommand(), NewDescribeCommand(), NewExecCommand(),
		NewDDLCommand(), NewTableCommand(), NewColumnCommand(), NewMigrateCommand(),
		NewRebuildCommand(), NewDoctorCommand(),
	} {
		assert.NotEmpty(t, cmd.Use)
		assert.NotEmpty(t, cmd.Short, "%s should have a short description", cmd.Use)
	}
	assert.NotNil(t, NewQueryCommand().Flags().Lookup("format"))
	assert.NotNil(t, NewDoctorCommand().Flags().Lookup("format"))
}
