// Package buildinfo exposes the version metadata stamped into the
// wtstatus binary at link time.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Info describes how a binary was produced.
type Info struct {
	Version string
	Commit  string
	Date    string
	BuiltBy string
}

var current = Info{Version: "dev", Commit: "none", Date: "unknown", BuiltBy: "unknown"}

// Set records the linker-injected metadata. main() calls it once at startup.
func Set(info Info) { current = info }

// Current returns the recorded build metadata.
func Current() Info { return current }

// Short returns the bare version string for --version output.
func Short() string { return current.Version }

// String renders the metadata as a single human-readable line.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s by %s)", i.Version, i.Commit, i.Date, i.BuiltBy)
}

// Enrich backfills fields the linker left at their defaults, using the
// build information the Go toolchain embeds in the binary.
func Enrich() {
	if current.Commit != "none" && current.BuiltBy != "unknown" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if current.Commit == "none" {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				current.Commit = setting.Value
			}
		}
	}
	if current.BuiltBy == "unknown" {
		current.BuiltBy = info.GoVersion
	}
}
