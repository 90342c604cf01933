package config

import (
	"os"

	stagehanderrors "github.com/stagehand-cli/stagehand/pkg/errors"
)

// InterpolateEnv substitutes $NAME/${NAME} references in bindings against the
// host environment (via lookup) at task-start. A reference to an unset host
// variable is a fatal ConfigurationError surfaced before any step runs;
// lookup is injectable for testing.
func InterpolateEnv(bindings []EnvBinding, lookup func(string) (string, bool)) ([]EnvVar, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	resolved := make([]EnvVar, 0, len(bindings))
	for _, binding := range bindings {
		value, missing := substituteHostRefs(binding.Value, lookup)
		if missing != "" {
			return nil, stagehanderrors.NewConfigurationError(
				"env."+binding.Name,
				"host environment variable not set: "+missing,
				nil,
			)
		}
		resolved = append(resolved, EnvVar{Name: binding.Name, Value: value})
	}
	return resolved, nil
}

// EnvVar is a resolved, post-interpolation environment binding.
type EnvVar struct {
	Name  string
	Value string
}

// substituteHostRefs replaces every $NAME/${NAME} occurrence in value.
// Returns the missing variable name (non-empty) on the first unresolved
// reference.
func substituteHostRefs(value string, lookup func(string) (string, bool)) (string, string) {
	var missing string
	result := hostRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		if missing != "" {
			return match
		}
		name := hostRefPattern.FindStringSubmatch(match)
		varName := name[1]
		if varName == "" {
			varName = name[2]
		}
		resolved, ok := lookup(varName)
		if !ok {
			missing = varName
			return match
		}
		return resolved
	})
	if missing != "" {
		return "", missing
	}
	return result, ""
}
