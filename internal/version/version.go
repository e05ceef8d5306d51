// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Product is the name reported to upstream services.
const Product = "talentrag"

// UserAgent identifies this build on outbound requests.
func UserAgent() string {
	return Product + "/" + Version
}

// String renders the build for startup logs, e.g. "v1.2.0 (abc123, 2026-03-01)".
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
