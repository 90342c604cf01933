package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "stagehand.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseConfigHappyPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project_name: demo
containers:
  svc:
    image: alpine:3.19
tasks:
  t:
    run:
      container: svc
      command: "echo hi"
`)

	cfg, warnings, err := ParseConfig(path)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "demo", cfg.ProjectName)
	require.Equal(t, ImageSourcePull, cfg.Containers["svc"].Image.Kind)
	require.Equal(t, "alpine:3.19", cfg.Containers["svc"].Image.PullRef)
	require.Equal(t, []string{"echo", "hi"}, cfg.Tasks["t"].Run.Command)
	require.NoError(t, ValidateConfig(cfg))
}

func TestParseConfigStartAliasUnionsAndWarns(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project_name: demo
containers:
  db:
    image: postgres:16
  svc:
    image: alpine:3.19
    dependencies: [db]
    start: [db, other]
  other:
    image: alpine:3.19
tasks:
  t:
    run:
      container: svc
`)

	cfg, warnings, err := ParseConfig(path)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "using their union")
	require.ElementsMatch(t, []string{"db", "other"}, cfg.Containers["svc"].DependsOn)
}

func TestParseConfigMalformedYAMLIsParseError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "containers: [this is not a map")

	_, _, err := ParseConfig(path)
	require.Error(t, err)

	var parseErr interface{ Error() string }
	require.ErrorAs(t, err, &parseErr)
}

func TestParseConfigBuildAndImageBothSetIsConfigurationError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project_name: demo
containers:
  svc:
    build: ./svc
    image: alpine:3.19
tasks: {}
`)

	_, _, err := ParseConfig(path)
	require.Error(t, err)
}

func TestValidateConfigDetectsDependencyCycle(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project_name: demo
containers:
  a:
    image: alpine:3.19
    dependencies: [b]
  b:
    image: alpine:3.19
    dependencies: [a]
tasks:
  t:
    run:
      container: a
`)

	cfg, _, err := ParseConfig(path)
	require.NoError(t, err)

	err = ValidateConfig(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestValidateConfigDetectsUnresolvedReferences(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project_name: demo
containers:
  svc:
    image: alpine:3.19
    dependencies: [ghost]
tasks:
  t:
    run:
      container: missing
    prerequisites: [also-missing]
`)

	cfg, _, err := ParseConfig(path)
	require.NoError(t, err)

	err = ValidateConfig(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ghost")
	require.Contains(t, err.Error(), "missing")
	require.Contains(t, err.Error(), "also-missing")
}
