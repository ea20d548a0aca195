package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/ghostmark/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// UserAgent is sent on every outgoing Ghost request.
func UserAgent() string {
	return fmt.Sprintf("ghostmark/%s (+%s)", Version, Commit)
}

// String is the one-line banner printed by `ghostmark version`.
func String() string {
	return fmt.Sprintf("ghostmark %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
