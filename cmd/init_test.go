package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadops-cli/internal/config"
)

func TestInitCommand_WritesStarterConfig(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	initForce = false
	require.NoError(t, initCmd.RunE(initCmd, nil))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 1, cfg.Forge.Version)
	assert.Equal(t, 8080, cfg.Server.Port)

	// a second run without --force refuses to clobber
	err = initCmd.RunE(initCmd, nil)
	assert.ErrorContains(t, err, "already exists")

	initForce = true
	t.Cleanup(func() { initForce = false })
	assert.NoError(t, initCmd.RunE(initCmd, nil))
}
