// Package version provides application version information.
// The values can be set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/booster-companion/internal/version.Version=v1.2.3"
package version

import "fmt"

// Version is the application version. It defaults to "dev".
var Version = "dev"

// Commit is the source revision the binary was built from.
var Commit = ""

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// String formats the version with the commit when known.
func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
