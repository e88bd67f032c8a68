package focus

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("valid_threshold: 0.6\nrecovery_window: 90s\n"), 0o600))

	p, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, p.ValidThreshold)
	assert.Equal(t, 90*time.Second, p.RecoveryWindow)
	assert.Equal(t, 5, p.MaxRecoveries)
	assert.Equal(t, 30*time.Second, p.HeartbeatCap)
}

func TestLoadPolicyFileRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("valid_threshold: 1.5\n"), 0o600))
	_, err := LoadPolicyFile(path)
	assert.Error(t, err)
}

func TestLoadPolicyFileEmptyPath(t *testing.T) {
	p, err := LoadPolicyFile("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}
