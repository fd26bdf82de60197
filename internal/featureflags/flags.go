package featureflags

import (
	"os"
	"strings"
)

// Editing enables PUT and DELETE on /api/employees/{id}
const Editing = "editing"

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes/on (case-insensitive)
func Enabled(name string) bool {
	return enabledIn(os.LookupEnv, name)
}

func enabledIn(lookup func(string) (string, bool), name string) bool {
	v, _ := lookup("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
