// Package version holds build metadata for hostel-intray.
package version

import "fmt"

// Set at build time with -ldflags "-X".
var (
	Version = "development"
	Commit  = "unknown"
)

// String returns the version, suffixed with the commit when known.
func String() string {
	if Commit == "unknown" || Commit == "" {
		return Version
	}
	return Version + "+" + Commit
}

// UserAgent is sent by the HTTP and stream clients.
func UserAgent() string {
	return fmt.Sprintf("hostel-intray/%s", String())
}
