// Package model defines the tagged-union event and step types shared by the
// graph, planner, step runner, and orchestrator packages. Both are modeled as
// flat structs with a Kind discriminant and optional fields populated per
// kind, rather than as interface hierarchies — the same pattern the pack uses
// for closed, small variant sets.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the fixed taxonomy of task events.
type EventKind int

const (
	EventTaskStarted EventKind = iota
	EventTaskNetworkCreated
	EventTaskNetworkCreationFailed
	EventImageBuildProgress
	EventImageBuilt
	EventImageBuildFailed
	EventImagePulled
	EventImagePullFailed
	EventContainerCreated
	EventContainerCreationFailed
	EventContainerStarted
	EventContainerStartFailed
	EventContainerBecameHealthy
	EventContainerDidNotBecomeHealthy
	EventRunningContainerExited
	EventContainerStopped
	EventContainerStopFailed
	EventContainerRemoved
	EventContainerRemovalFailed
	EventTaskNetworkDeleted
	EventTaskNetworkDeletionFailed
)

func (k EventKind) String() string {
	switch k {
	case EventTaskStarted:
		return "TaskStarted"
	case EventTaskNetworkCreated:
		return "TaskNetworkCreated"
	case EventTaskNetworkCreationFailed:
		return "TaskNetworkCreationFailed"
	case EventImageBuildProgress:
		return "ImageBuildProgress"
	case EventImageBuilt:
		return "ImageBuilt"
	case EventImageBuildFailed:
		return "ImageBuildFailed"
	case EventImagePulled:
		return "ImagePulled"
	case EventImagePullFailed:
		return "ImagePullFailed"
	case EventContainerCreated:
		return "ContainerCreated"
	case EventContainerCreationFailed:
		return "ContainerCreationFailed"
	case EventContainerStarted:
		return "ContainerStarted"
	case EventContainerStartFailed:
		return "ContainerStartFailed"
	case EventContainerBecameHealthy:
		return "ContainerBecameHealthy"
	case EventContainerDidNotBecomeHealthy:
		return "ContainerDidNotBecomeHealthy"
	case EventRunningContainerExited:
		return "RunningContainerExited"
	case EventContainerStopped:
		return "ContainerStopped"
	case EventContainerStopFailed:
		return "ContainerStopFailed"
	case EventContainerRemoved:
		return "ContainerRemoved"
	case EventContainerRemovalFailed:
		return "ContainerRemovalFailed"
	case EventTaskNetworkDeleted:
		return "TaskNetworkDeleted"
	case EventTaskNetworkDeletionFailed:
		return "TaskNetworkDeletionFailed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// IsFailure reports whether the event kind is one of the taxonomy's *Failed
// variants (spec's "*Failed event concerning N").
func (k EventKind) IsFailure() bool {
	switch k {
	case EventTaskNetworkCreationFailed,
		EventImageBuildFailed,
		EventImagePullFailed,
		EventContainerCreationFailed,
		EventContainerStartFailed,
		EventContainerDidNotBecomeHealthy,
		EventContainerStopFailed,
		EventContainerRemovalFailed,
		EventTaskNetworkDeletionFailed:
		return true
	default:
		return false
	}
}

// Event is one posted fact in the task's event log. Fields not relevant to
// Kind are left zero-valued.
type Event struct {
	ID        uuid.UUID
	Kind      EventKind
	Container string
	NetworkID string
	ImageID   string
	ImageRef  string
	Handle    string
	Progress  string
	Message   string
	ExitCode  int
	Timestamp time.Time
}

func newEvent(kind EventKind) Event {
	return Event{ID: uuid.New(), Kind: kind, Timestamp: time.Now()}
}

// NewTaskStarted constructs a TaskStarted event.
func NewTaskStarted() Event {
	return newEvent(EventTaskStarted)
}

// NewTaskNetworkCreated constructs a TaskNetworkCreated event.
func NewTaskNetworkCreated(networkID string) Event {
	e := newEvent(EventTaskNetworkCreated)
	e.NetworkID = networkID
	return e
}

// NewTaskNetworkCreationFailed constructs a TaskNetworkCreationFailed event.
func NewTaskNetworkCreationFailed(message string) Event {
	e := newEvent(EventTaskNetworkCreationFailed)
	e.Message = message
	return e
}

// NewImageBuildProgress constructs an ImageBuildProgress event.
func NewImageBuildProgress(container, progress string) Event {
	e := newEvent(EventImageBuildProgress)
	e.Container = container
	e.Progress = progress
	return e
}

// NewImageBuilt constructs an ImageBuilt event.
func NewImageBuilt(container, imageID string) Event {
	e := newEvent(EventImageBuilt)
	e.Container = container
	e.ImageID = imageID
	return e
}

// NewImageBuildFailed constructs an ImageBuildFailed event.
func NewImageBuildFailed(container, message string) Event {
	e := newEvent(EventImageBuildFailed)
	e.Container = container
	e.Message = message
	return e
}

// NewImagePulled constructs an ImagePulled event.
func NewImagePulled(container, imageID string) Event {
	e := newEvent(EventImagePulled)
	e.Container = container
	e.ImageID = imageID
	return e
}

// NewImagePullFailed constructs an ImagePullFailed event.
func NewImagePullFailed(container, imageRef, message string) Event {
	e := newEvent(EventImagePullFailed)
	e.Container = container
	e.ImageRef = imageRef
	e.Message = message
	return e
}

// NewContainerCreated constructs a ContainerCreated event.
func NewContainerCreated(container, handle string) Event {
	e := newEvent(EventContainerCreated)
	e.Container = container
	e.Handle = handle
	return e
}

// NewContainerCreationFailed constructs a ContainerCreationFailed event.
func NewContainerCreationFailed(container, message string) Event {
	e := newEvent(EventContainerCreationFailed)
	e.Container = container
	e.Message = message
	return e
}

// NewContainerStarted constructs a ContainerStarted event.
func NewContainerStarted(container string) Event {
	e := newEvent(EventContainerStarted)
	e.Container = container
	return e
}

// NewContainerStartFailed constructs a ContainerStartFailed event.
func NewContainerStartFailed(container, message string) Event {
	e := newEvent(EventContainerStartFailed)
	e.Container = container
	e.Message = message
	return e
}

// NewContainerBecameHealthy constructs a ContainerBecameHealthy event.
func NewContainerBecameHealthy(container string) Event {
	e := newEvent(EventContainerBecameHealthy)
	e.Container = container
	return e
}

// NewContainerDidNotBecomeHealthy constructs a ContainerDidNotBecomeHealthy event.
func NewContainerDidNotBecomeHealthy(container, message string) Event {
	e := newEvent(EventContainerDidNotBecomeHealthy)
	e.Container = container
	e.Message = message
	return e
}

// NewRunningContainerExited constructs a RunningContainerExited event.
func NewRunningContainerExited(container string, exitCode int) Event {
	e := newEvent(EventRunningContainerExited)
	e.Container = container
	e.ExitCode = exitCode
	return e
}

// NewContainerStopped constructs a ContainerStopped event.
func NewContainerStopped(container string) Event {
	e := newEvent(EventContainerStopped)
	e.Container = container
	return e
}

// NewContainerStopFailed constructs a ContainerStopFailed event.
func NewContainerStopFailed(container, message string) Event {
	e := newEvent(EventContainerStopFailed)
	e.Container = container
	e.Message = message
	return e
}

// NewContainerRemoved constructs a ContainerRemoved event.
func NewContainerRemoved(container string) Event {
	e := newEvent(EventContainerRemoved)
	e.Container = container
	return e
}

// NewContainerRemovalFailed constructs a ContainerRemovalFailed event.
func NewContainerRemovalFailed(container, message string) Event {
	e := newEvent(EventContainerRemovalFailed)
	e.Container = container
	e.Message = message
	return e
}

// NewTaskNetworkDeleted constructs a TaskNetworkDeleted event.
func NewTaskNetworkDeleted() Event {
	return newEvent(EventTaskNetworkDeleted)
}

// NewTaskNetworkDeletionFailed constructs a TaskNetworkDeletionFailed event.
func NewTaskNetworkDeletionFailed(message string) Event {
	e := newEvent(EventTaskNetworkDeletionFailed)
	e.Message = message
	return e
}
