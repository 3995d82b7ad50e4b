// File: cmd/root_test.go
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	isolateEnv(t)
	out, err := executeCommand(t, context.Background(), nil, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	isolateEnv(t)
	out, err := executeCommand(t, context.Background(), nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "logwarden "+Version+"\n", out)
}

func TestRootCmd_NoArgsPrintsHelp(t *testing.T) {
	isolateEnv(t)
	out, err := executeCommand(t, context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Logwarden watches growing log files")
	for _, sub := range []string{"watch", "scan", "analyze", "debug", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_InvalidConfigFile(t *testing.T) {
	isolateEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("monitor:\n  min_poll_interval: 1ms\n"), 0o644))

	_, err := executeCommand(t, context.Background(), nil, "--config", cfgPath, "scan", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_poll_interval")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	isolateEnv(t)
	_, err := executeCommand(t, context.Background(), nil, "--config", "/does/not/exist.yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfigFrom_Missing(t *testing.T) {
	_, err := configFrom(context.Background())
	assert.Error(t, err)
}
