// Package version carries build metadata injected via ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/termsite/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime/debug"
)

// Version contains the application version.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for `termsite version`.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("termsite %s (commit %s, built %s)", v, GitCommit, BuildTime)
}
