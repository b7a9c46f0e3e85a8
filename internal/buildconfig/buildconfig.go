// Package buildconfig holds version metadata stamped at link time.
package buildconfig

import "fmt"

// Set via -ldflags "-X .../buildconfig.version=... -X .../buildconfig.commit=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version returns the semantic version of this build.
func Version() string { return version }

// Commit returns the VCS revision this build was produced from.
func Commit() string { return commit }

// Date returns the build timestamp.
func Date() string { return date }

// String formats the full build identity on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
