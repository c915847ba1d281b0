package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in s:
//   - ${VAR_NAME} is replaced with the value of VAR_NAME
//   - ${VAR_NAME:-default} falls back to default when VAR_NAME is unset or empty
//   - $VAR_NAME is replaced with the value of VAR_NAME
//
// Unset variables without a default expand to the empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]
			if name, def, ok := strings.Cut(inner, ":-"); ok {
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}

// ExpandEnvConfig expands environment references in the path-like values
// of cfg: the window title, the overlay script, the SSH address and the
// host key path. HUD text is left alone because it uses the same ${name}
// syntax for its own variables.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	for _, s := range []*string{
		&cfg.Window.Title,
		&cfg.Script.Path,
		&cfg.Server.Addr,
		&cfg.Server.HostKeyPath,
	} {
		*s = ExpandEnv(*s)
	}
}
