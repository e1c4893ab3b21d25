// Package version holds build information for the coderefs binary.
package version

import "runtime"

// Set at build time:
// go build -ldflags "-X coderefs/internal/version.Version=1.2.0 -X coderefs/internal/version.Commit=abc123"
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version banner.
func Full() string {
	return "coderefs version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}

// UserAgent identifies the tool to remote APIs.
func UserAgent() string {
	return "coderefs/" + Version
}
