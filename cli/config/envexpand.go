// Package config loads reprox.yaml, the defaults for every reprox command.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} in input with environment
// values. The default applies when VAR is unset or empty.
//
// Unset variables without defaults expand to empty string, not an error.
// Required values fail later, when the command validates its inputs.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		if value := os.Getenv(m[1]); value != "" {
			return value
		}
		return m[2]
	})
}
