package mcp

import (
	"os"
	"strings"

	"github.com/hupe1980/opsmesh/logging"
)

// ExpandEnv resolves ${VAR} style placeholders in configured env values
// against the process environment. Unresolved placeholders are kept literally
// and logged; resolution failures are never fatal.
func ExpandEnv(env map[string]string, logger logging.Logger) map[string]string {
	if len(env) == 0 {
		return nil
	}

	expanded := make(map[string]string, len(env))
	for key, value := range env {
		if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
			expanded[key] = value
			continue
		}

		name := value[2 : len(value)-1]
		if resolved, ok := os.LookupEnv(name); ok && resolved != "" {
			expanded[key] = resolved
			logger.Debug("expanded environment placeholder", "key", key, "var", name)
			continue
		}

		logger.Warn("environment variable not found, keeping placeholder", "key", key, "var", name)
		expanded[key] = value
	}

	return expanded
}
