// Package buildinfo exposes version and build information for nwconf.
// The variables are set at link-time.
package buildinfo

import "fmt"

// Version is set at link-time with -ldflags.
var Version = "v0.3.0"

// Commit is set at link-time with -ldflags.
// Default is "unknown" so tests and "go run ." still work.
var Commit = "unknown"

// String formats the version line printed by "nwconf version".
func String() string {
	return fmt.Sprintf("nwconf %s (commit %s)", Version, Commit)
}
