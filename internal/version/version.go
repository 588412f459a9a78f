// Package version carries the build identity stamped in at link time.
package version

var (
	// Version is the semantic version, overridden via -ldflags.
	Version = "0.1.0-dev"
	// Commit is the git revision the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)
