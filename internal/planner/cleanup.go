package planner

import (
	"strings"

	"github.com/stagehand-cli/stagehand/internal/graph"
	"github.com/stagehand-cli/stagehand/internal/model"
)

// CleanupResult is the cleanup-stage planner's pure output. Ready mirrors
// Run's Ready: steps now dispatchable. Once Done, Finish is always the
// FinishTask step, and Failure carries a DisplayTaskFailure step with
// assembled manual-cleanup instructions whenever any cleanup step failed.
type CleanupResult struct {
	Ready   []model.Step
	Done    bool
	Finish  model.Step
	Failure *model.Step
}

// Cleanup is the cleanup-stage planner, entered once the run-stage planner
// signals terminal. outcome is the run stage's terminal
// signal: TerminalSuccess removes containers normally; TerminalFailure
// forcibly cleans them up, tolerant of containers already gone.
func Cleanup(g *graph.Graph, events []model.Event, outcome Terminal) CleanupResult {
	names := g.All()
	var ready []model.Step
	var instructions []string

	allAccounted := true

	for _, name := range names {
		created := hasEvent(events, model.EventContainerCreated, name)
		removed := hasEvent(events, model.EventContainerRemoved, name)
		removeFailed := hasEvent(events, model.EventContainerRemovalFailed, name)
		started := hasEvent(events, model.EventContainerStarted, name)
		stopped := hasEvent(events, model.EventContainerStopped, name)
		stopFailed := hasEvent(events, model.EventContainerStopFailed, name)
		exited := hasEvent(events, model.EventRunningContainerExited, name)
		handle := handleFor(events, name)

		// Rule: stop every container that was started but neither stopped
		// nor exited. Root never has a ContainerStarted event (it is run,
		// not started), so this naturally never fires for it — the
		// "skip stop for the exited root" rule falls out for free.
		needsStop := started && !stopped && !stopFailed && !exited
		if needsStop {
			ready = append(ready, model.Step{Kind: model.StepStopContainer, Container: name, Handle: handle})
			allAccounted = false
		}
		if stopFailed {
			instructions = append(instructions, "docker stop "+handle+" # "+messageFor(events, model.EventContainerStopFailed, name))
		}

		// Rule: remove every created container not yet removed, once any
		// stop it needs has been observed (or failed).
		if created && !removed && !removeFailed && !needsStop {
			if outcome == TerminalSuccess {
				ready = append(ready, model.Step{Kind: model.StepRemoveContainer, Container: name, Handle: handle})
			} else {
				ready = append(ready, model.Step{Kind: model.StepCleanUpContainer, Container: name, Handle: handle})
			}
			allAccounted = false
		}
		if removeFailed {
			instructions = append(instructions, "docker rm -f "+handle+" # "+messageFor(events, model.EventContainerRemovalFailed, name))
		}
	}

	networkCreated := hasKind(events, model.EventTaskNetworkCreated)
	networkDeleted := hasKind(events, model.EventTaskNetworkDeleted)
	networkDeleteFailed := hasKind(events, model.EventTaskNetworkDeletionFailed)
	allRemoved := allContainersRemoved(names, events)

	if networkDeleteFailed {
		instructions = append(instructions, "docker network rm "+networkIDFrom(events)+" # "+messageFor(events, model.EventTaskNetworkDeletionFailed, ""))
	}

	// Once every container removal is observed (or failed), tear down the
	// network.
	if allRemoved && networkCreated && !networkDeleted && !networkDeleteFailed {
		ready = append(ready, model.Step{Kind: model.StepDeleteTaskNetwork, NetworkID: networkIDFrom(events)})
	}
	if networkCreated && !networkDeleted && !networkDeleteFailed {
		allAccounted = false
	}

	result := CleanupResult{Ready: ready}
	if !allAccounted {
		return result
	}

	result.Done = true
	result.Finish = model.Step{Kind: model.StepFinishTask}
	if len(instructions) > 0 {
		failure := model.Step{Kind: model.StepDisplayTaskFailure, Instructions: strings.Join(instructions, "\n")}
		result.Failure = &failure
	}
	return result
}

func allContainersRemoved(names []string, events []model.Event) bool {
	for _, name := range names {
		created := hasEvent(events, model.EventContainerCreated, name)
		removed := hasEvent(events, model.EventContainerRemoved, name)
		removeFailed := hasEvent(events, model.EventContainerRemovalFailed, name)
		if created && !removed && !removeFailed {
			return false
		}
	}
	return true
}

func handleFor(events []model.Event, container string) string {
	for _, e := range events {
		if e.Kind == model.EventContainerCreated && e.Container == container {
			return e.Handle
		}
	}
	return ""
}

func messageFor(events []model.Event, kind model.EventKind, container string) string {
	for _, e := range events {
		if e.Kind == kind && (container == "" || e.Container == container) {
			return e.Message
		}
	}
	return ""
}
