// Package version carries build metadata stamped in with -ldflags.
package version

import "fmt"

var (
	// Version is the release version of the converter
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a one-line description such as "v1.2.0 (abc123, built 2024-05-01)".
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
