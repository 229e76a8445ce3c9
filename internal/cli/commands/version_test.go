package commands

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runVersion(t *testing.T, info BuildInfo, args ...string) (string, error) {
	t.Helper()
	cmd := NewVersionCommand(info)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand_Text(t *testing.T) {
	out, err := runVersion(t, BuildInfo{Version: "1.2.3", GitCommit: "a1b2c3d", BuildDate: "2026-10-01"})
	require.NoError(t, err)

	assert.Contains(t, out, "kudusql v1.2.3\n")
	assert.Contains(t, out, "commit: a1b2c3d")
	assert.Contains(t, out, "built:  2026-10-01")
	assert.Contains(t, out, runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCommand_Short(t *testing.T) {
	out, err := runVersion(t, BuildInfo{Version: "dev"}, "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := runVersion(t, BuildInfo{Version: "0.1.0", GitCommit: "unknown", BuildDate: "unknown", Platform: "plan9/386"},
		"--format", "json")
	require.NoError(t, err)

	var got BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "0.1.0", got.Version)
	assert.Equal(t, "plan9/386", got.Platform, "an explicit platform is kept")
	assert.Equal(t, runtime.Version(), got.GoVersion)
}

func TestVersionCommand_Rejects(t *testing.T) {
	_, err := runVersion(t, BuildInfo{Version: "0.1.0"}, "--format", "yaml")
	assert.ErrorContains(t, err, `unknown format "yaml"`)

	_, err = runVersion(t, BuildInfo{Version: "0.1.0"}, "extra")
	assert.Error(t, err)
}
