package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionFile string

// Build-time variables set via ldflags
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Version returns the current version of supaextract
func Version() string {
	return strings.TrimSpace(versionFile)
}

// Platform returns the OS/architecture combination
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// String returns the full version line, e.g. "v0.1.0@abc123 linux/amd64 2025-01-01".
func String() string {
	return fmt.Sprintf("v%s@%s %s %s", Version(), GitCommit, Platform(), BuildDate)
}
