package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitwire/pkg/config"
	"github.com/ssargent/bitwire/pkg/di"
)

func TestUpCmd(t *testing.T) {
	t.Run("bootstraps a missing config then serves", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "etc", "config.yaml")
		dataDir := filepath.Join(dir, "data")

		c := di.NewContainer()
		starter := &fakeServerStarter{}
		c.SetServerFactory(&fakeServerFactory{starter: starter})
		SetContainer(c)

		root := NewRootCmd()
		var out, errOut bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&errOut)
		root.SetArgs([]string{"up", "--config", configPath, "--data-dir", dataDir, "--print-key", "--no-capture", "--log-level", "error"})
		require.NoError(t, root.ExecuteContext(context.Background()))

		require.True(t, config.ConfigExists(configPath))
		saved, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, dataDir, saved.DataDir)
		assert.Len(t, saved.Server.APIKey, 64)
		assert.DirExists(t, dataDir)

		require.True(t, starter.called)
		assert.Equal(t, saved.Server.APIKey, starter.config.APIKey)
		assert.Equal(t, saved.Server.Port, starter.config.Port)
		assert.Nil(t, starter.deps.Recorder)

		assert.Contains(t, errOut.String(), "First run: config written to "+configPath)
		assert.Contains(t, errOut.String(), "API key: "+saved.Server.APIKey)
	})

	t.Run("existing config is used unchanged", func(t *testing.T) {
		env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.APIKey = "kept-key" })
		starter := &fakeServerStarter{}
		env.container.SetServerFactory(&fakeServerFactory{starter: starter})

		_, err := env.run(t, "", "up", "--port", "9555")
		require.NoError(t, err)

		require.True(t, starter.called)
		assert.Equal(t, "kept-key", starter.config.APIKey)
		assert.Equal(t, 9555, starter.config.Port)
		assert.NotNil(t, starter.deps.Recorder)

		saved, err := config.LoadConfig(env.configPath)
		require.NoError(t, err)
		assert.Equal(t, "kept-key", saved.Server.APIKey)
	})
}
