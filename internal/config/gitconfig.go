package config

import (
	"os/exec"
	"strings"
	"time"
)

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

// runGitConfig executes git config and returns raw output.
func runGitConfig(args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	output, err := cmd.Output()
	if err != nil {
		// git config exits 1 when a key is not found, which is not an error
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return string(output), nil
}

// ApplyGitOverrides layers repository-scoped `wtstatus.*` git config keys on
// top of cfg. Recognized keys: throttle, interval, autorefresh, debuglog.
// Malformed values are ignored so a bad repo config cannot break startup.
func ApplyGitOverrides(cfg *AppConfig, repoPath string) {
	output, err := runGitConfig([]string{"config", "--get-regexp", `^wtstatus\.`}, repoPath)
	if err != nil || output == "" {
		return
	}

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		// Format: "wtstatus.throttle 300ms"; SplitN keeps values with spaces.
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimPrefix(parts[0], "wtstatus.")
		value := strings.TrimSpace(parts[1])

		switch key {
		case "throttle":
			if d, err := time.ParseDuration(value); err == nil && d > 0 {
				cfg.Throttle = d
			}
		case "interval":
			if d, err := time.ParseDuration(value); err == nil && d >= 0 {
				cfg.Interval = d
			}
		case "autorefresh":
			cfg.AutoRefresh = value == "true" || value == "1" || value == "yes"
		case "debuglog":
			cfg.DebugLog = value
		}
	}
}
