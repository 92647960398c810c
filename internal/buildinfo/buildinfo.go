// Package buildinfo carries release metadata injected at link time.
package buildinfo

// These values are injected via -ldflags "-X" for release binaries, e.g.
//
//	-X github.com/aidanlsb/ifcq/internal/buildinfo.Version=v0.3.0
//
// They default to empty for local/dev builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
