package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/shortlinks/pkg/config"
	"github.com/ssargent/shortlinks/pkg/di"
)

// executeCommand runs rootCmd with args and returns everything it printed
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeConfig saves cfg, or the defaults when nil, to a temp file and
// returns its path
func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

func TestLoadRuntime(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Port = 9123
	cfg.Logging.Level = "debug"
	path := writeConfig(t, cfg)

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Flags().Set("config", path))

	require.NoError(t, loadRuntime(cmd, nil))

	loaded, err := configFrom(cmd)
	require.NoError(t, err)
	assert.Equal(t, 9123, loaded.Port)
	assert.True(t, loggerFrom(cmd).Enabled(context.Background(), slog.LevelDebug))
}

func TestLoadRuntime_MissingFile(t *testing.T) {
	_, err := executeCommand(t, "config", "show", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestSetContainer(t *testing.T) {
	c := di.NewContainer()
	SetContainer(c)
	assert.Same(t, c, container)
}

func TestMain(m *testing.M) {
	// keep a developer's own config file out of the tests
	home, err := os.MkdirTemp("", "shortlinks-home")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", home)
	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}
