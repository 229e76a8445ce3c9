// Package main provides tests for the kudusql CLI.
package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/kudusql/internal/cli"
)

func TestImpalaDriverRegistered(t *testing.T) {
	assert.Contains(t, sql.Drivers(), "impala")
}

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "kudusql v")
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, expected := range []string{"query", "tables", "describe", "ddl", "table", "column", "migrate", "rebuild", "doctor"} {
		assert.True(t, strings.Contains(output, expected), "help output should contain %q", expected)
	}
	schema := strings.Index(output, "Schema Commands:")
	migrations := strings.Index(output, "Migration and Rebuild Commands:")
	require.Positive(t, schema)
	assert.Greater(t, migrations, schema, "groups are listed in registration order")
}

func TestDDLRenderThroughRoot(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	def := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(def, []byte(`
name: events
columns:
  - {name: id, type: bigint, primary_key: true}
  - {name: occurred_at, type: datetime}
`), 0o600))

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"ddl", "render", "-f", def, "--state", filepath.Join(dir, "state.db")})

	require.NoError(t, cmd.Execute())
	assert.Equal(t,
		"CREATE TABLE events (id BIGINT NOT NULL, occurred_at BIGINT NULL, PRIMARY KEY (id)) PARTITION BY HASH(id) PARTITIONS 2 STORED AS KUDU;\n",
		buf.String())
}

func TestInvalidConfigFails(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := cli.NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"tables", "--port", "70000"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "out of range")
}

func TestCompletionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"completion", "bash"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "kudusql")
}
