package uisink

import (
	"github.com/stagehand-cli/stagehand/internal/model"
)

// containerDisplayState is the per-container state the fancy program
// renders.
type containerDisplayState int

const (
	readyToAcquire containerDisplayState = iota
	building
	pulling
	imageReadyWaitingNetwork
	waitingForDependencies
	creating
	starting
	startedWaitingHealthy
	running
	done
	failedState
)

func (s containerDisplayState) label() string {
	switch s {
	case readyToAcquire:
		return "ready"
	case building:
		return "building"
	case pulling:
		return "pulling"
	case imageReadyWaitingNetwork:
		return "waiting for network"
	case waitingForDependencies:
		return "waiting for dependencies"
	case creating:
		return "creating"
	case starting:
		return "starting"
	case startedWaitingHealthy:
		return "waiting for health check"
	case running:
		return "running"
	case done:
		return "done"
	case failedState:
		return "failed"
	default:
		return "unknown"
	}
}

// containerView is one container's row of display state, advanced as steps
// are dispatched and events are posted.
type containerView struct {
	name    string
	state   containerDisplayState
	message string
}

// onStep folds a dispatched step into the display state. networkReady is
// accepted for symmetry with onEvent but does not affect the result; the
// network-versus-dependencies wait is decided in onEvent.
func (cv *containerView) onStep(step model.Step, networkReady bool) {
	if step.Container != cv.name {
		return
	}
	switch step.Kind {
	case model.StepBuildImage:
		cv.state = building
	case model.StepPullImage:
		cv.state = pulling
	case model.StepCreateContainer:
		cv.state = creating
	case model.StepStartContainer:
		cv.state = starting
	case model.StepRunContainer:
		cv.state = running
	}
	_ = networkReady
}

// onEvent folds a posted event into the display state.
func (cv *containerView) onEvent(e model.Event, networkReady bool) {
	if e.Container != cv.name {
		return
	}
	switch e.Kind {
	case model.EventImageBuildFailed, model.EventImagePullFailed:
		cv.state, cv.message = failedState, e.Message
	case model.EventImageBuilt, model.EventImagePulled:
		if networkReady {
			cv.state = waitingForDependencies
		} else {
			cv.state = imageReadyWaitingNetwork
		}
	case model.EventContainerCreationFailed:
		cv.state, cv.message = failedState, e.Message
	case model.EventContainerStartFailed:
		cv.state, cv.message = failedState, e.Message
	case model.EventContainerStarted:
		cv.state = startedWaitingHealthy
	case model.EventContainerBecameHealthy:
		cv.state = done
	case model.EventContainerDidNotBecomeHealthy:
		cv.state, cv.message = failedState, e.Message
	case model.EventRunningContainerExited:
		cv.state = done
	case model.EventContainerStopFailed, model.EventContainerRemovalFailed:
		cv.message = e.Message
	}
}
