// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/tenantrag/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats all three fields for startup logs and the CLI banner.
func String() string {
	return fmt.Sprintf("tenantrag %s (commit %s, built %s)", Version, Commit, Date)
}
