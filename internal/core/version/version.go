// Package version reports what build of arguxai is running
package version

import "runtime/debug"

// BuildInfo describes the running binary
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

// Stamped with -ldflags "-X arguxai/internal/core/version.version=v0.1.0
// -X arguxai/internal/core/version.commit=abcd -X arguxai/internal/core/version.date=2026-01-02"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	service = "arguxai-api"
)

// SetService names the binary reporting the build, e.g. arguxai-detect
func SetService(name string) {
	if name != "" {
		service = name
	}
}

// Info returns the build information
func Info() BuildInfo {
	bi := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	if b, ok := debug.ReadBuildInfo(); ok && b != nil {
		bi.GoVersion = b.GoVersion
	}
	return bi
}
