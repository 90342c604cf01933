package model

import "fmt"

// StepKind discriminates the fixed taxonomy of dispatchable work steps.
type StepKind int

const (
	StepBeginTask StepKind = iota
	StepBuildImage
	StepPullImage
	StepCreateTaskNetwork
	StepCreateContainer
	StepRunContainer
	StepStartContainer
	StepWaitForHealthy
	StepStopContainer
	StepRemoveContainer
	StepCleanUpContainer
	StepDeleteTaskNetwork
	StepDisplayTaskFailure
	StepFinishTask
)

func (k StepKind) String() string {
	switch k {
	case StepBeginTask:
		return "BeginTask"
	case StepBuildImage:
		return "BuildImage"
	case StepPullImage:
		return "PullImage"
	case StepCreateTaskNetwork:
		return "CreateTaskNetwork"
	case StepCreateContainer:
		return "CreateContainer"
	case StepRunContainer:
		return "RunContainer"
	case StepStartContainer:
		return "StartContainer"
	case StepWaitForHealthy:
		return "WaitForContainerToBecomeHealthy"
	case StepStopContainer:
		return "StopContainer"
	case StepRemoveContainer:
		return "RemoveContainer"
	case StepCleanUpContainer:
		return "CleanUpContainer"
	case StepDeleteTaskNetwork:
		return "DeleteTaskNetwork"
	case StepDisplayTaskFailure:
		return "DisplayTaskFailure"
	case StepFinishTask:
		return "FinishTask"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// EnvVar is a resolved (post-interpolation) environment binding.
type EnvVar struct {
	Name  string
	Value string
}

// PortMapping binds a host port to a container port.
type PortMapping struct {
	Host      int
	Container int
}

// VolumeMount binds a host path to a container path.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	Mode          string
}

// ImageSourceKind distinguishes the two ways an image can be obtained.
type ImageSourceKind int

const (
	ImageSourceBuild ImageSourceKind = iota
	ImageSourcePull
)

// ImageSource is the flat-struct variant of {build-from-directory, pull}.
type ImageSource struct {
	Kind      ImageSourceKind
	BuildPath string
	PullRef   string
}

// Step is one unit of dispatchable work. Fields not relevant to Kind are
// left zero-valued.
type Step struct {
	Kind         StepKind
	Container    string
	NetworkID    string
	Image        ImageSource
	ImageID      string
	Command      []string
	Env          []EnvVar
	Ports        []PortMapping
	Volumes      []VolumeMount
	WorkDir      string
	Handle       string
	Instructions string
}

// Identity returns the step-identity key the orchestrator uses for at-most-
// once dispatch: container+step-kind, or network+step-kind for
// network-scoped steps, matching spec's "container+step-kind or
// network+step-kind" identity rule.
func (s Step) Identity() string {
	switch s.Kind {
	case StepCreateTaskNetwork, StepDeleteTaskNetwork:
		return fmt.Sprintf("network:%s", s.Kind)
	case StepBeginTask, StepFinishTask, StepDisplayTaskFailure:
		return fmt.Sprintf("task:%s", s.Kind)
	default:
		return fmt.Sprintf("container:%s:%s", s.Container, s.Kind)
	}
}
