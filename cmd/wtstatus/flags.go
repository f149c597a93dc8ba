package main

import (
	urfavecli "github.com/urfave/cli/v2"
)

// globalFlags returns all global flags for the application.
// Note: --version is provided automatically by urfave/cli via App.Version
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.DurationFlag{
			Name:    "throttle",
			Aliases: []string{"t"},
			Usage:   "Minimum spacing between event-triggered polls",
		},
		&urfavecli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Periodic fallback polling cadence (0 disables)",
		},
		&urfavecli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable styled output",
		},
		&urfavecli.BoolFlag{
			Name:  "no-watch",
			Usage: "Disable filesystem watching, poll periodically only",
		},
	}
}
