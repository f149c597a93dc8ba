// Package main is the entry point for the wtstatus binary.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chmouel/wtstatus/internal/buildinfo"
	"github.com/chmouel/wtstatus/internal/config"
	"github.com/chmouel/wtstatus/internal/git"
	"github.com/chmouel/wtstatus/internal/log"
	"github.com/chmouel/wtstatus/internal/registry"
	"github.com/chmouel/wtstatus/internal/watcher"
	urfavecli "github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(buildinfo.Info{Version: version, Commit: commit, Date: date, BuiltBy: builtBy})
	buildinfo.Enrich()

	cliApp := &urfavecli.App{
		Name:                 "wtstatus",
		Usage:                "Watch git worktrees and keep their status fresh",
		Version:              buildinfo.Short(),
		EnableBashCompletion: true,

		Flags: globalFlags(),

		Commands: []*urfavecli.Command{
			statusCommand(),
			completionCommand(),
		},

		Action: runWatch,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// runWatch is the default action: watch the repository's worktrees and
// stream status updates until interrupted.
func runWatch(c *urfavecli.Context) error {
	cfg, repoPath, err := setup(c)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gitSvc := git.NewService()
	reg := registry.New(gitSvc, repoPath, log.Printf)
	if err := reg.Start(ctx); err != nil {
		return fmt.Errorf("not a git repository at %s: %w", repoPath, err)
	}
	defer reg.Stop()

	r := newRenderer(cfg.NoColor)
	store := watcher.NewStore(r.printUpdate)

	var source watcher.WatchSource = watcher.NewFsWatchSource(log.Printf)
	if !cfg.AutoRefresh {
		source = disabledWatchSource{}
	} else if len(cfg.WatchExclude) > 0 {
		source = excludeWatchSource{next: source, exclude: cfg.WatchExclude}
	}

	ctrl := watcher.New(reg, gitSvc, source, store, watcher.Options{
		Throttle: cfg.Throttle,
		Interval: cfg.Interval,
		Logf:     log.Printf,
	})
	ctrl.Start(ctx)
	defer ctrl.Dispose()

	<-ctx.Done()
	return nil
}

// statusCommand is the one-shot variant: poll every worktree once, print the
// result, exit.
func statusCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "status",
		Usage: "Print the status of all worktrees once and exit",
		Action: func(c *urfavecli.Context) error {
			cfg, repoPath, err := setup(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			gitSvc := git.NewService()
			reg := registry.New(gitSvc, repoPath, log.Printf)

			store := watcher.NewStore(nil)
			ctrl := watcher.New(reg, gitSvc, disabledWatchSource{}, store, watcher.Options{
				Throttle: cfg.Throttle,
				Logf:     log.Printf,
			})
			ctrl.Start(c.Context)
			ctrl.ForceRefreshAll()
			defer ctrl.Dispose()

			r := newRenderer(cfg.NoColor)
			wts, err := reg.Worktrees(c.Context)
			if err != nil {
				return err
			}
			for _, wt := range wts {
				if snapshot, ok := store.Status(wt.Path); ok {
					r.printUpdate(wt.Path, snapshot)
				}
			}
			return nil
		},
	}
}

// setup loads configuration, applies flag overrides and initializes debug
// logging. It returns the effective config and the repository path.
func setup(c *urfavecli.Context) (*config.AppConfig, string, error) {
	if debugLog := c.String("debug-log"); debugLog != "" {
		expanded, err := config.ExpandPath(debugLog)
		if err != nil {
			expanded = debugLog
		}
		if err := log.SetFile(expanded); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", expanded, err)
		}
	} else {
		_ = log.SetFile("")
	}

	cfg, err := config.LoadConfig(c.String("config-file"))
	if err != nil {
		return nil, "", err
	}

	repoPath := c.Args().First()
	if repoPath == "" {
		repoPath, err = os.Getwd()
		if err != nil {
			return nil, "", err
		}
	}
	config.ApplyGitOverrides(cfg, repoPath)

	if c.IsSet("throttle") {
		cfg.Throttle = c.Duration("throttle")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	if c.Bool("no-color") {
		cfg.NoColor = true
	}
	if c.Bool("no-watch") {
		cfg.AutoRefresh = false
	}
	if cfg.DebugLog != "" && c.String("debug-log") == "" {
		expanded, err := config.ExpandPath(cfg.DebugLog)
		if err == nil {
			_ = log.SetFile(expanded)
		}
	}

	return cfg, repoPath, nil
}

// disabledWatchSource degrades every worktree to periodic-only polling.
type disabledWatchSource struct{}

func (disabledWatchSource) Watch(string, func()) (func(), error) {
	return nil, fmt.Errorf("filesystem watching disabled")
}

// excludeWatchSource degrades the configured paths to periodic-only polling
// while the rest keep their filesystem watch.
type excludeWatchSource struct {
	next    watcher.WatchSource
	exclude []string
}

func (s excludeWatchSource) Watch(path string, onEvent func()) (func(), error) {
	for _, ex := range s.exclude {
		if expanded, err := config.ExpandPath(ex); err == nil {
			ex = expanded
		}
		if filepath.Clean(ex) == filepath.Clean(path) {
			return nil, fmt.Errorf("watching disabled for %s", path)
		}
	}
	return s.next.Watch(path, onEvent)
}
