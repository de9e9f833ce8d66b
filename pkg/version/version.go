// Package version provides version information for the bridge backend.
package version

// Version is the current version of the bridge backend.
const Version = "1.0.0"

// AgentString returns the User-Agent sent to price APIs and chain endpoints.
// Format: bridge-backend/v{version}
func AgentString() string {
	return "bridge-backend/v" + Version
}
