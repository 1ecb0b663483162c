package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifesync/internal/config"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "lifesync dev\n", out.String())
}

func TestLoadConfigAppliesFlagsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  width: 12\n  height: 9\n"), 0o600))

	flags := config.NewFlags()
	serve := newServeCmd(flags)
	require.NoError(t, serve.ParseFlags([]string{"--config", path, "--width", "20", "--boundary", "toroidal"}))

	cfg, err := loadConfig(serve, flags)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Grid.Width)
	assert.Equal(t, 9, cfg.Grid.Height)
	assert.Equal(t, "toroidal", cfg.Grid.Boundary)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	flags := config.NewFlags()
	serve := newServeCmd(flags)
	require.NoError(t, serve.ParseFlags([]string{"--boundary", "spherical"}))

	_, err := loadConfig(serve, flags)
	assert.Error(t, err)
}

func TestServeRejectsUnknownArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"serve", "extra"})
	assert.Error(t, cmd.Execute())
}
