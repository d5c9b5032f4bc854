// Package version holds build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent identifies the client, the Go runtime and the platform.
func UserAgent() string {
	return fmt.Sprintf("matproj/%s (Go/%s %s/%s)",
		Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// String renders the build metadata on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
