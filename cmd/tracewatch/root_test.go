package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFilePrefersFlag(t *testing.T) {
	file, err := configFile("/etc/tracewatch.toml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/tracewatch.toml", file)
}

func TestConfigFileDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	file, err := configFile("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "agentos", "tracewatch.toml"), file)
}

func TestConfigFileReportsUnresolvableHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")

	file, err := configFile("")
	assert.Error(t, err)
	assert.Empty(t, file)
}
