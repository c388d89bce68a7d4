// Package version reports the build version of reportbuilder.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/reportbuilder/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, set alongside Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version. When no ldflags were
// given, the module version recorded by the Go toolchain is used.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			v = info.Main.Version
		}
	}
	if GitCommit == "unknown" {
		return "reportbuilder " + v
	}
	return fmt.Sprintf("reportbuilder %s (%s, built %s)", v, GitCommit, BuildTime)
}
