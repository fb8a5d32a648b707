// Package config handles YAML config file loading for changelogctl.
package config

import (
	"fmt"
	"os"
	"regexp"
)

// envRefPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:[-?])([^}]*))?\}`)

// EnvError reports a ${VAR:?message} reference whose variable is unset
// or empty.
type EnvError struct {
	Var string
	Msg string
}

func (e *EnvError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("environment variable %s is required", e.Var)
	}
	return fmt.Sprintf("environment variable %s: %s", e.Var, e.Msg)
}

// ExpandEnv replaces environment references in input:
//   - ${VAR} expands to the value, or "" when unset
//   - ${VAR:-default} expands to the value, or default when unset or empty
//   - ${VAR:?message} expands to the value, or fails with *EnvError
//
// Only the first failing reference is reported.
func ExpandEnv(input string) (string, error) {
	return expandWith(input, os.LookupEnv)
}

func expandWith(input string, lookup func(string) (string, bool)) (string, error) {
	var firstErr error
	out := envRefPattern.ReplaceAllStringFunc(input, func(ref string) string {
		m := envRefPattern.FindStringSubmatch(ref)
		name, op, arg := m[1], m[2], m[3]

		if value, ok := lookup(name); ok && value != "" {
			return value
		}
		switch op {
		case ":-":
			return arg
		case ":?":
			if firstErr == nil {
				firstErr = &EnvError{Var: name, Msg: arg}
			}
		}
		return ""
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
