package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagehand-cli/stagehand/internal/config"
	"github.com/stagehand-cli/stagehand/internal/daemon"
	"github.com/stagehand-cli/stagehand/internal/graph"
	"github.com/stagehand-cli/stagehand/internal/model"
)

type recordingSink struct {
	mu       sync.Mutex
	started  []string
	events   []model.Event
	steps    []model.Step
	failures []string
}

func (r *recordingSink) OnTaskStarting(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recordingSink) OnEventPosted(e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) OnStepStarting(s model.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s)
}

func (r *recordingSink) OnTaskFailed(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

func (r *recordingSink) eventKinds() []model.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]model.EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cfg := &config.Configuration{
		ProjectName: "demo",
		Containers: map[string]config.ContainerDefinition{
			"svc": {
				Name:      "svc",
				Image:     config.ImageSource{Kind: config.ImageSourcePull, PullRef: "alpine:3.19"},
				DependsOn: []string{"db"},
			},
			"db": {
				Name:  "db",
				Image: config.ImageSource{Kind: config.ImageSourcePull, PullRef: "postgres:16"},
			},
		},
		Tasks: map[string]config.TaskDefinition{
			"t": {Name: "t", Run: config.RunConfig{Container: "svc"}},
		},
	}
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)
	return g
}

func TestManagerRunsHappyPathToCompletion(t *testing.T) {
	t.Parallel()

	g := buildGraph(t)
	fake := daemon.NewFake()
	fake.ExitCodes["svc"] = 0

	sink := &recordingSink{}
	mgr := New("t", g, fake, sink)

	ctx, cancel := t.Context(), func() {}
	_ = cancel
	exitCode, err := mgr.Run(ctx, make(chan struct{}))
	require.NoError(t, err)
	require.Equal(t, 0, exitCode)

	require.Equal(t, []string{"t"}, sink.started)
	require.Empty(t, sink.failures)
	require.Contains(t, sink.eventKinds(), model.EventRunningContainerExited)
	require.Contains(t, sink.eventKinds(), model.EventTaskNetworkDeleted)
}

func TestManagerRunsCleanupOnDependencyHealthFailure(t *testing.T) {
	t.Parallel()

	g := buildGraph(t)
	fake := daemon.NewFake()
	fake.UnhealthyAfter["db"] = true

	sink := &recordingSink{}
	mgr := New("t", g, fake, sink)

	exitCode, err := mgr.Run(t.Context(), make(chan struct{}))
	require.NoError(t, err)
	require.Equal(t, -1, exitCode)
	require.NotEmpty(t, sink.failures)
	require.Contains(t, sink.eventKinds(), model.EventContainerDidNotBecomeHealthy)
	require.NotContains(t, sink.eventKinds(), model.EventRunningContainerExited)
}

func TestManagerRunsPropagatesCreateFailureThroughCleanup(t *testing.T) {
	t.Parallel()

	g := buildGraph(t)
	fake := daemon.NewFake()
	fake.FailCreate["db"] = "no space left on device"

	sink := &recordingSink{}
	mgr := New("t", g, fake, sink)

	exitCode, err := mgr.Run(t.Context(), make(chan struct{}))
	require.NoError(t, err)
	require.Equal(t, -1, exitCode)
	require.Contains(t, sink.eventKinds(), model.EventContainerCreationFailed)
}

func buildSingleContainerGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cfg := &config.Configuration{
		ProjectName: "demo",
		Containers: map[string]config.ContainerDefinition{
			"svc": {
				Name:  "svc",
				Image: config.ImageSource{Kind: config.ImageSourcePull, PullRef: "alpine:3.19"},
			},
		},
		Tasks: map[string]config.TaskDefinition{
			"t": {Name: "t", Run: config.RunConfig{Container: "svc"}},
		},
	}
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	require.NoError(t, err)
	return g
}

// TestManagerCompletesWithNoDependenciesAfterRootExits guards against a
// run→cleanup transition that stalls waiting for a wake token: with a
// single, dependency-free container, RunningContainerExited is the last
// event any worker posts, so nothing wakes the loop unless the stage switch
// itself triggers an immediate replan.
func TestManagerCompletesWithNoDependenciesAfterRootExits(t *testing.T) {
	t.Parallel()

	g := buildSingleContainerGraph(t)
	fake := daemon.NewFake()
	fake.ExitCodes["svc"] = 0

	sink := &recordingSink{}
	mgr := New("t", g, fake, sink)

	done := make(chan struct{})
	var exitCode int
	var runErr error
	go func() {
		defer close(done)
		exitCode, runErr = mgr.Run(t.Context(), make(chan struct{}))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not complete after root container exited")
	}
	require.NoError(t, runErr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, sink.eventKinds(), model.EventRunningContainerExited)
	require.Contains(t, sink.eventKinds(), model.EventTaskNetworkDeleted)
}

func TestManagerHonorsInterruptBySkippingToCleanup(t *testing.T) {
	t.Parallel()

	g := buildGraph(t)
	fake := daemon.NewFake()

	sink := &recordingSink{}
	mgr := New("t", g, fake, sink)

	interrupted := make(chan struct{}, 1)
	close(interrupted)

	done := make(chan struct{})
	var exitCode int
	go func() {
		defer close(done)
		exitCode, _ = mgr.Run(t.Context(), interrupted)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not complete after interrupt")
	}
	require.Equal(t, -1, exitCode)
	require.Contains(t, sink.failures, "interrupted")
}
