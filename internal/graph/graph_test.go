package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagehand-cli/stagehand/internal/config"
)

func sampleConfig() *config.Configuration {
	return &config.Configuration{
		ProjectName: "demo",
		Containers: map[string]config.ContainerDefinition{
			"svc": {
				Name:      "svc",
				Image:     config.ImageSource{Kind: config.ImageSourcePull, PullRef: "alpine:3.19"},
				Command:   []string{"sleep", "1"},
				DependsOn: []string{"db"},
			},
			"db": {
				Name:  "db",
				Image: config.ImageSource{Kind: config.ImageSourcePull, PullRef: "postgres:16"},
				Env:   []config.EnvBinding{config.NewEnvBinding("POSTGRES_PASSWORD", "secret")},
			},
		},
		Tasks: map[string]config.TaskDefinition{
			"t": {
				Name: "t",
				Run: config.RunConfig{
					Container: "svc",
					Command:   []string{"echo", "hi"},
				},
			},
		},
	}
}

func TestBuildResolvesTransitiveClosure(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	g, err := Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)

	require.Equal(t, "svc", g.Root)
	require.ElementsMatch(t, []string{"svc", "db"}, g.All())
	require.True(t, g.Node("svc").IsRoot)
	require.False(t, g.Node("db").IsRoot)
	require.Equal(t, []string{"db"}, g.Predecessors("svc"))
	require.Equal(t, []string{"svc"}, g.Successors("db"))
}

func TestBuildAppliesEffectiveCommandPrecedence(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	g, err := Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)

	require.Equal(t, []string{"echo", "hi"}, g.Node("svc").Command)
	require.Nil(t, g.Node("db").Command)
}

func TestBuildRejectsUnresolvedDependency(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	svc := cfg.Containers["svc"]
	svc.DependsOn = []string{"ghost"}
	cfg.Containers["svc"] = svc

	_, err := Build(cfg, cfg.Tasks["t"])
	require.Error(t, err)
	require.Contains(t, err.Error(), "ghost")
}

func TestBuildRejectsSelfDependency(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	svc := cfg.Containers["svc"]
	svc.DependsOn = []string{"svc"}
	cfg.Containers["svc"] = svc

	_, err := Build(cfg, cfg.Tasks["t"])
	require.Error(t, err)
}

func TestBuildRejectsCycleAndNamesIt(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	svc := cfg.Containers["svc"]
	svc.DependsOn = []string{"db"}
	cfg.Containers["svc"] = svc
	db := cfg.Containers["db"]
	db.DependsOn = []string{"svc"}
	cfg.Containers["db"] = db

	_, err := Build(cfg, cfg.Tasks["t"])
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
	require.Contains(t, err.Error(), "svc")
	require.Contains(t, err.Error(), "db")
}

func TestBuildEveryNodeReachableFromRoot(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	cfg.Containers["cache"] = config.ContainerDefinition{
		Name:  "cache",
		Image: config.ImageSource{Kind: config.ImageSourcePull, PullRef: "redis:7"},
	}

	g, err := Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)

	require.NotContains(t, g.All(), "cache")
}

func TestBuildMergesTaskLevelEnvAndPortsWithOverridePrecedence(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	svcDef := cfg.Containers["svc"]
	svcDef.Env = []config.EnvBinding{config.NewEnvBinding("MODE", "base")}
	svcDef.Ports = []config.PortMapping{{Host: 8080, Container: 80}}
	cfg.Containers["svc"] = svcDef

	task := cfg.Tasks["t"]
	task.Run.Env = []config.EnvBinding{config.NewEnvBinding("MODE", "override"), config.NewEnvBinding("EXTRA", "x")}
	task.Run.Ports = []config.PortMapping{{Host: 9090, Container: 80}}
	cfg.Tasks["t"] = task

	g, err := Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)

	root := g.Node("svc")
	envByName := map[string]string{}
	for _, e := range root.Env {
		envByName[e.Name] = e.Value
	}
	require.Equal(t, "override", envByName["MODE"])
	require.Equal(t, "x", envByName["EXTRA"])
	require.Len(t, root.Ports, 1)
	require.Equal(t, 9090, root.Ports[0].Host)
}

func TestBuildInterpolatesHostEnvReferences(t *testing.T) {
	t.Setenv("STAGEHAND_TEST_DB_PASSWORD", "hunter2")

	cfg := sampleConfig()
	dbDef := cfg.Containers["db"]
	dbDef.Env = []config.EnvBinding{config.NewEnvBinding("PASSWORD", "$STAGEHAND_TEST_DB_PASSWORD")}
	cfg.Containers["db"] = dbDef

	g, err := Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)

	db := g.Node("db")
	require.Len(t, db.Env, 1)
	require.Equal(t, "hunter2", db.Env[0].Value)
}

func TestBuildFailsOnUnsetHostEnvReference(t *testing.T) {
	t.Parallel()

	cfg := sampleConfig()
	dbDef := cfg.Containers["db"]
	dbDef.Env = []config.EnvBinding{config.NewEnvBinding("MISSING_VAR", "$STAGEHAND_TEST_DEFINITELY_UNSET")}
	cfg.Containers["db"] = dbDef

	_, err := Build(cfg, cfg.Tasks["t"])
	require.Error(t, err)
	require.Contains(t, err.Error(), "STAGEHAND_TEST_DEFINITELY_UNSET")
}
