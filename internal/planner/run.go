package planner

import (
	"github.com/stagehand-cli/stagehand/internal/graph"
	"github.com/stagehand-cli/stagehand/internal/model"
)

// Terminal is the run/cleanup stage's terminal signal.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalSuccess
	TerminalFailure
)

// Result is the planner's pure output: the steps now ready to execute, and
// whether the stage has reached a terminal state.
type Result struct {
	Ready    []model.Step
	Terminal Terminal
	Reason   string
}

// Run is the run-stage planner: a pure function of (graph, event snapshot)
// re-invoked on every new event, emitting ready steps and signaling terminal
// success/failure exactly. It performs no
// duplicate suppression — the orchestrator tracks in-flight/completed step
// identities, which is what lets Run stay a pure, stateless function over
// the full event history on every call.
func Run(g *graph.Graph, events []model.Event) Result {
	if len(events) == 0 {
		return Result{Ready: []model.Step{{Kind: model.StepBeginTask}}}
	}

	if reason, failed := terminalFailureReason(events); failed {
		return Result{Terminal: TerminalFailure, Reason: reason}
	}
	if hasEvent(events, model.EventRunningContainerExited, g.Root) {
		return Result{Terminal: TerminalSuccess}
	}

	names := g.All()
	states := deriveStates(names, g.Predecessors, events)

	var ready []model.Step

	// Rule 2: CreateTaskNetwork once TaskStarted observed (guaranteed true
	// here, since events is non-empty and BeginTask's only event is
	// TaskStarted) and no network event exists yet.
	if !hasKind(events, model.EventTaskNetworkCreated) {
		ready = append(ready, model.Step{Kind: model.StepCreateTaskNetwork})
	}

	// Rule 3: image acquisition for every node with no image event yet.
	for _, name := range names {
		if states[name].state != NotStarted {
			continue
		}
		node := g.Node(name)
		switch node.Image.Kind {
		case model.ImageSourceBuild:
			ready = append(ready, model.Step{Kind: model.StepBuildImage, Container: name, Image: node.Image})
		case model.ImageSourcePull:
			ready = append(ready, model.Step{Kind: model.StepPullImage, Container: name, Image: node.Image})
		}
	}

	// Rule 4: CreateContainer for every Creatable node.
	networkID := networkIDFrom(events)
	for _, name := range names {
		if states[name].state != Creatable {
			continue
		}
		node := g.Node(name)
		ready = append(ready, model.Step{
			Kind:      model.StepCreateContainer,
			Container: name,
			NetworkID: networkID,
			Image:     node.Image,
			ImageID:   states[name].imageID,
			Command:   node.Command,
			Env:       node.Env,
			Ports:     node.Ports,
			Volumes:   node.Volumes,
			WorkDir:   node.WorkDir,
		})
	}

	// Rule 5: StartContainer for dependency nodes in Created.
	for _, name := range names {
		if name == g.Root || states[name].state != Created {
			continue
		}
		ready = append(ready, model.Step{Kind: model.StepStartContainer, Container: name, Handle: states[name].handle})
	}

	// Rule 6: WaitForHealthy for dependency nodes started but not yet healthy.
	for _, name := range names {
		if name == g.Root || states[name].state != Started {
			continue
		}
		ready = append(ready, model.Step{Kind: model.StepWaitForHealthy, Container: name, Handle: states[name].handle})
	}

	// Rule 7: RunContainer for the root once Created with all predecessors
	// healthy (the manager guarantees "exactly once" via step-identity dedup).
	rootState := states[g.Root]
	if rootState.state == Created && allPredecessorsHealthy(states, g.Predecessors(g.Root)) {
		ready = append(ready, model.Step{Kind: model.StepRunContainer, Container: g.Root, Handle: rootState.handle})
	}

	return Result{Ready: ready}
}

// terminalFailureReason reports the message of the first *Failed (or
// ContainerDidNotBecomeHealthy) event observed, if any.
func terminalFailureReason(events []model.Event) (string, bool) {
	for _, e := range events {
		if e.Kind.IsFailure() {
			if e.Container != "" {
				return e.Container + ": " + e.Message, true
			}
			return e.Message, true
		}
	}
	return "", false
}

func hasKind(events []model.Event, kind model.EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func networkIDFrom(events []model.Event) string {
	for _, e := range events {
		if e.Kind == model.EventTaskNetworkCreated {
			return e.NetworkID
		}
	}
	return ""
}
