package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultThrottle, cfg.Throttle)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.True(t, cfg.AutoRefresh)
	assert.Empty(t, cfg.DebugLog)
	assert.False(t, cfg.NoColor)
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
throttle: 250ms
interval: 10s
auto_refresh: false
watch_exclude:
  - /repo-wt/huge-checkout
debug_log: /tmp/wtstatus.log
no_color: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Throttle)
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.False(t, cfg.AutoRefresh)
	assert.Equal(t, []string{"/repo-wt/huge-checkout"}, cfg.WatchExclude)
	assert.Equal(t, "/tmp/wtstatus.log", cfg.DebugLog)
	assert.True(t, cfg.NoColor)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("throttle: 1s\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Throttle)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.True(t, cfg.AutoRefresh)
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("throttle: soon\n"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/logs/wt.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs/wt.log"), expanded)

	expanded, err = ExpandPath("/absolute/path")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path", expanded)
}
