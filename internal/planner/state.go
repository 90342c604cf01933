package planner

import "github.com/stagehand-cli/stagehand/internal/model"

// ContainerState is the per-container state derived fresh from the event
// snapshot on every planning call.
type ContainerState int

const (
	NotStarted ContainerState = iota
	ImageReady
	Creatable
	Created
	Started
	Healthy
	Exited
	Failed
)

func (s ContainerState) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case ImageReady:
		return "image-ready"
	case Creatable:
		return "creatable"
	case Created:
		return "created"
	case Started:
		return "started"
	case Healthy:
		return "healthy"
	case Exited:
		return "exited"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// derivedState is the full per-container view the emission rules consult.
type derivedState struct {
	state      ContainerState
	imageID    string
	handle     string
	hasFailure bool
}

// deriveStates computes the state of every node in g from the event
// snapshot, applying the per-container derivation rules exactly. It is a
// pure function of (graph, events), recomputed on every planning
// call — no state is mutated or cached between calls.
func deriveStates(names []string, predecessorsOf func(string) []string, events []model.Event) map[string]*derivedState {
	states := make(map[string]*derivedState, len(names))
	for _, name := range names {
		states[name] = &derivedState{state: NotStarted}
	}

	imageReady := map[string]bool{}
	networkCreated := false
	failedContainers := map[string]bool{}

	for _, e := range events {
		switch e.Kind {
		case model.EventTaskNetworkCreated:
			networkCreated = true
		case model.EventImageBuilt, model.EventImagePulled:
			imageReady[e.Container] = true
			if st, ok := states[e.Container]; ok {
				st.imageID = e.ImageID
			}
		case model.EventContainerCreated:
			if st, ok := states[e.Container]; ok {
				st.handle = e.Handle
			}
		}
		if e.Kind.IsFailure() && e.Container != "" {
			failedContainers[e.Container] = true
		}
	}

	for _, name := range names {
		st := states[name]
		if failedContainers[name] {
			st.state = Failed
			st.hasFailure = true
			continue
		}

		created := hasEvent(events, model.EventContainerCreated, name)
		started := hasEvent(events, model.EventContainerStarted, name)
		healthy := hasEvent(events, model.EventContainerBecameHealthy, name)
		exited := hasEvent(events, model.EventRunningContainerExited, name)

		switch {
		case exited:
			st.state = Exited
		case healthy:
			st.state = Healthy
		case started:
			st.state = Started
		case created:
			st.state = Created
		case imageReady[name]:
			st.state = ImageReady
		default:
			st.state = NotStarted
		}
	}

	// Creatable depends on every predecessor's state, so it is decided only
	// once every node's own state is known, independent of name order.
	for _, name := range names {
		st := states[name]
		if st.state == ImageReady && networkCreated && allPredecessorsHealthy(states, predecessorsOf(name)) {
			st.state = Creatable
		}
	}

	return states
}

func allPredecessorsHealthy(states map[string]*derivedState, predecessors []string) bool {
	for _, p := range predecessors {
		if states[p] == nil || states[p].state != Healthy {
			return false
		}
	}
	return true
}

func hasEvent(events []model.Event, kind model.EventKind, container string) bool {
	for _, e := range events {
		if e.Kind == kind && e.Container == container {
			return true
		}
	}
	return false
}
