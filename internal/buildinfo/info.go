// Package buildinfo carries the version identifiers stamped in at build
// time via -ldflags.
package buildinfo

import "fmt"

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the short git hash of the build.
	Commit = "none"
	// Date is when the binary was built.
	Date = "unknown"
)

// String renders the stamped identifiers in one line for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
