// Package orchestrator is the parallel execution manager: it drives the
// plan → dispatch → await-event → post → loop cycle, switching from the
// run-stage planner to the cleanup-stage planner the moment a terminal
// signal appears, and owns the worker pool that runs steps concurrently.
package orchestrator

import (
	"context"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stagehand-cli/stagehand/internal/daemon"
	"github.com/stagehand-cli/stagehand/internal/eventlog"
	"github.com/stagehand-cli/stagehand/internal/graph"
	"github.com/stagehand-cli/stagehand/internal/model"
	"github.com/stagehand-cli/stagehand/internal/planner"
	"github.com/stagehand-cli/stagehand/internal/steprunner"
)

// Sink receives progress notifications as the manager works. Implementations
// live outside this package (a line-oriented logger, a full-screen program);
// the manager only needs to call them.
type Sink interface {
	OnTaskStarting(taskName string)
	OnEventPosted(event model.Event)
	OnStepStarting(step model.Step)
	OnTaskFailed(reason string)
}

// Manager owns one task run end to end: its event log, its worker pool, and
// the active planner.
type Manager struct {
	TaskName string
	Graph    *graph.Graph
	Daemon   daemon.Daemon
	Sink     Sink
	Log      *eventlog.Log
	Stdout   io.Writer
	Stderr   io.Writer
	Workers  int
}

// New constructs a Manager with a worker pool sized max(2, GOMAXPROCS).
func New(taskName string, g *graph.Graph, d daemon.Daemon, sink Sink) *Manager {
	workers := runtime.GOMAXPROCS(0)
	if workers < 2 {
		workers = 2
	}
	return &Manager{
		TaskName: taskName,
		Graph:    g,
		Daemon:   d,
		Sink:     sink,
		Log:      eventlog.New(),
		Stdout:   io.Discard,
		Stderr:   io.Discard,
		Workers:  workers,
	}
}

type posterFunc func(model.Event)

func (f posterFunc) Post(e model.Event) { f(e) }

// Run drives the task to completion, returning the process's exit code: the
// root container's own exit code on success, or -1 if the task never reached
// a successful root exit (failure, or interrupted before the root ran).
//
// interrupted receives once per SIGINT the caller observes. The first signal
// stops dispatching further run-stage steps and moves straight to cleanup
// without cancelling steps already in flight. Cancelling ctx — the caller's
// response to a second signal — aborts immediately without waiting for
// in-flight steps to finish.
func (m *Manager) Run(ctx context.Context, interrupted <-chan struct{}) (int, error) {
	var (
		mu         sync.Mutex
		postMu     sync.Mutex
		dispatched = map[string]bool{}
		workers    errgroup.Group
	)
	workers.SetLimit(m.Workers)
	wake := make(chan struct{}, 256)

	// post appends to the log and notifies the sink under one lock, so the
	// sink sees events in the same order as the log.
	post := func(e model.Event) {
		postMu.Lock()
		m.Log.Post(e)
		if m.Sink != nil {
			m.Sink.OnEventPosted(e)
		}
		postMu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	}

	dispatch := func(step model.Step) {
		identity := step.Identity()
		mu.Lock()
		if dispatched[identity] {
			mu.Unlock()
			return
		}
		dispatched[identity] = true
		mu.Unlock()

		if m.Sink != nil {
			m.Sink.OnStepStarting(step)
		}

		workers.Go(func() error {
			steprunner.Run(ctx, step, m.Daemon, posterFunc(post), m.Stdout, m.Stderr)
			return nil
		})
	}

	if m.Sink != nil {
		m.Sink.OnTaskStarting(m.TaskName)
	}

	stage := stageRun
	var outcome planner.Terminal
	interruptedFired := false

	for {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		default:
		}

		stageBefore := stage

		if !interruptedFired {
			select {
			case <-interrupted:
				interruptedFired = true
				outcome = planner.TerminalFailure
				stage = stageCleanup
				if m.Sink != nil {
					m.Sink.OnTaskFailed("interrupted")
				}
			default:
			}
		}

		events := m.Log.Snapshot()

		if stage == stageRun {
			result := planner.Run(m.Graph, events)
			if result.Terminal != planner.TerminalNone {
				outcome = result.Terminal
				if result.Terminal == planner.TerminalFailure && m.Sink != nil {
					m.Sink.OnTaskFailed(result.Reason)
				}
				stage = stageCleanup
			} else {
				for _, step := range result.Ready {
					dispatch(step)
				}
			}
		} else {
			cleanupResult := planner.Cleanup(m.Graph, events, outcome)
			for _, step := range cleanupResult.Ready {
				dispatch(step)
			}
			if cleanupResult.Done {
				_ = workers.Wait()
				if cleanupResult.Failure != nil && m.Sink != nil {
					m.Sink.OnStepStarting(*cleanupResult.Failure)
				}
				if m.Sink != nil {
					m.Sink.OnStepStarting(cleanupResult.Finish)
				}
				return exitCodeFrom(m.Log.Snapshot(), m.Graph.Root, outcome), nil
			}
		}

		if stage != stageBefore {
			// This iteration only switched stages (run terminated, or an
			// interrupt fired) — replan immediately under the new stage
			// instead of waiting for a wake token that may never come (no
			// worker is necessarily still in flight to post one).
			continue
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return -1, ctx.Err()
		}
	}
}

type stage int

const (
	stageRun stage = iota
	stageCleanup
)

func exitCodeFrom(events []model.Event, root string, outcome planner.Terminal) int {
	if outcome != planner.TerminalSuccess {
		return -1
	}
	for _, e := range events {
		if e.Kind == model.EventRunningContainerExited && e.Container == root {
			return e.ExitCode
		}
	}
	return -1
}
