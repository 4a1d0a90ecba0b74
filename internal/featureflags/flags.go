package featureflags

import (
	"os"
	"strings"
)

// EnforceActiveSessions makes authenticated routes re-read the account and
// reject sessions whose user has since been deactivated.
const EnforceActiveSessions = "enforce_active_sessions"

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
