// Package version carries build metadata injected via -ldflags.
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the short git hash the binary was built from.
	Commit = ""
	// BuildDate is the UTC build timestamp.
	BuildDate = ""
)

// String renders the version with whatever build metadata was injected,
// e.g. "0.3.1 (4f9c2aa, 2026-08-20)" or just "dev".
func String() string {
	s := Version
	switch {
	case Commit != "" && BuildDate != "":
		s += " (" + Commit + ", " + BuildDate + ")"
	case Commit != "":
		s += " (" + Commit + ")"
	case BuildDate != "":
		s += " (" + BuildDate + ")"
	}
	return s
}
