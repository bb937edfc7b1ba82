// Package version holds the blendforge version information.
// It has no dependencies so any package can import it safely.
package version

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
