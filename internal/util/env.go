// Package util holds small helpers shared across LoveLoop components.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean switch from the environment. It accepts
// the usual spellings (true/1/yes/on, false/0/no/off, any case) and
// falls back to defaultValue when the variable is unset or gibberish.
func ParseBoolEnv(key string, defaultValue bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		return defaultValue
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized value, keeping default", "key", key, "value", raw, "default", defaultValue)
	return defaultValue
}
