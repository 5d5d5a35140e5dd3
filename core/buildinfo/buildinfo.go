// Package buildinfo carries version identifiers stamped at build time:
//
//	-X 'ishtopar/core/buildinfo.Version=v0.3.0'
//	-X 'ishtopar/core/buildinfo.Commit=abcdef0'
//	-X 'ishtopar/core/buildinfo.Date=2026-08-29T12:00:00Z'
//
// The defaults identify local development builds.
package buildinfo

var (
	// Version is the tag or semantic version of the build.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "local"
	// Date is the build timestamp in RFC3339.
	Date = ""
)
