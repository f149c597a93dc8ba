// Package config loads wtstatus configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default timing values. The throttle window bounds how often filesystem
// events may trigger a status poll; the periodic interval is the fallback
// cadence that catches changes the watcher cannot see.
const (
	DefaultThrottle = 600 * time.Millisecond
	DefaultInterval = 30 * time.Second
)

// AppConfig defines the global wtstatus configuration options.
type AppConfig struct {
	Throttle     time.Duration // minimum spacing between event-triggered polls
	Interval     time.Duration // periodic fallback polling cadence, 0 disables
	AutoRefresh  bool          // start filesystem watchers (default: true)
	WatchExclude []string      // worktree paths polled periodically only
	DebugLog     string        // debug log file path, empty disables
	NoColor      bool          // disable styled output
}

type yamlConfig struct {
	Throttle     string   `yaml:"throttle"`
	Interval     string   `yaml:"interval"`
	AutoRefresh  *bool    `yaml:"auto_refresh"`
	WatchExclude []string `yaml:"watch_exclude"`
	DebugLog     string   `yaml:"debug_log"`
	NoColor      *bool    `yaml:"no_color"`
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Throttle:    DefaultThrottle,
		Interval:    DefaultInterval,
		AutoRefresh: true,
	}
}

// LoadConfig reads the configuration file at configPath, or the default
// ~/.config/wtstatus/config.yaml when empty. A missing file yields defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	var paths []string

	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return DefaultConfig(), err
		}
		paths = []string{expanded}
	} else {
		configBase := filepath.Join(configDir(), "wtstatus")
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	cfg := DefaultConfig()

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path comes from the user's own config location
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		if err := applyYAML(cfg, data); err != nil {
			return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
		}
		break
	}

	return cfg, nil
}

func applyYAML(cfg *AppConfig, data []byte) error {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Throttle != "" {
		d, err := time.ParseDuration(raw.Throttle)
		if err != nil {
			return fmt.Errorf("throttle: %w", err)
		}
		cfg.Throttle = d
	}
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = d
	}
	if raw.AutoRefresh != nil {
		cfg.AutoRefresh = *raw.AutoRefresh
	}
	if len(raw.WatchExclude) > 0 {
		cfg.WatchExclude = raw.WatchExclude
	}
	if raw.DebugLog != "" {
		cfg.DebugLog = raw.DebugLog
	}
	if raw.NoColor != nil {
		cfg.NoColor = *raw.NoColor
	}

	return nil
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
