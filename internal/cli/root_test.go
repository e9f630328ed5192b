package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	code   int
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ecaspace", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"cell", "row", "grid", "stats", "transitions", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	flags := cmd.PersistentFlags()

	verbose := flags.Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	assert.Equal(t, "text", flags.Lookup("format").DefValue)
	assert.Equal(t, "110", flags.Lookup("rule").DefValue)
	assert.Equal(t, "1", flags.Lookup("center").DefValue)
	assert.Equal(t, "", flags.Lookup("config").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	res := runCLI(t, "--format", "xml", "cell")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "invalid format")
}

func TestInvalidRule(t *testing.T) {
	res := runCLI(t, "--rule", "300", "cell")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "invalid configuration")
}

func TestInvalidPattern(t *testing.T) {
	res := runCLI(t, "--center", "1a1", "cell")
	assert.Equal(t, ExitCommandError, res.code)
}

func TestUnknownFlag(t *testing.T) {
	res := runCLI(t, "cell", "--nope")
	assert.Equal(t, ExitCommandError, res.code)
}

func TestJSONErrorEnvelope(t *testing.T) {
	res := runCLI(t, "--format", "json", "row", "--width", "0")
	assert.Equal(t, ExitCommandError, res.code)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "width")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecaspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rule: 90\ninitial:\n  center: \"1\"\n"), 0o600))

	res := runCLI(t, "--config", path, "cell", "--x", "1", "--t", "1")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "1", strings.TrimSpace(res.stdout))

	// Flags override the file.
	res = runCLI(t, "--config", path, "--rule", "0", "cell", "--x", "1", "--t", "1")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, "0", strings.TrimSpace(res.stdout))
}

func TestMissingConfigFile(t *testing.T) {
	res := runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "cell")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "load config")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
}
