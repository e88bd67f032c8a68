package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPolicyCommandPrintsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("valid_threshold: 0.6\nrecovery_window: 90s\n"), 0o600))

	out, err := run(t, "--policy", path, "policy")
	require.NoError(t, err)
	assert.Contains(t, out, "valid_threshold: 0.6")
	assert.Contains(t, out, "recovery_window: 1m30s")
	assert.Contains(t, out, "max_recoveries: 5")
}

func TestPolicyCommandRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("valid_threshold: 1.5\n"), 0o600))

	_, err := run(t, "--policy", path, "policy")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "valid_threshold"))
}

func TestJudgeCommandLexical(t *testing.T) {
	out, err := run(t, "--policy", "", "judge", "--topic", "Linear Algebra", "--title", "Linear algebra: eigenvalues")
	require.NoError(t, err)

	var got judgeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "VALID", got.Decision)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, 0.55, got.Threshold)
	assert.False(t, got.Degraded)
}

func TestJudgeCommandUnknownProvider(t *testing.T) {
	_, err := run(t, "--policy", "", "judge", "--provider", "oracle", "--topic", "x", "--title", "y")
	assert.Error(t, err)
}
