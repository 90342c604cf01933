// Package config models the immutable Configuration produced by parsing a
// project's stagehand.yml, together with its YAML decoding, validation, host
// environment interpolation, and shell-command parsing.
package config

import "regexp"

// hostRefPattern matches $NAME or ${NAME} host environment references inside
// an environment binding's value.
var hostRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// ImageSourceKind distinguishes the two ways a container's image can be
// obtained. Modeled as a flat tagged struct rather than an interface, since
// it is a closed, two-member variant set.
type ImageSourceKind int

const (
	ImageSourceBuild ImageSourceKind = iota
	ImageSourcePull
)

func (k ImageSourceKind) String() string {
	if k == ImageSourcePull {
		return "pull"
	}
	return "build"
}

// ImageSource is {build-from-directory(path)} or {pull(reference)}.
type ImageSource struct {
	Kind      ImageSourceKind
	BuildPath string
	PullRef   string
}

// EnvBinding is a name bound to a literal-or-host-variable-reference value.
// FromHost is true when Value contains at least one $NAME/${NAME} reference
// that must be resolved against the host environment at task-start.
type EnvBinding struct {
	Name     string
	Value    string
	FromHost bool
}

// NewEnvBinding constructs an EnvBinding, deriving FromHost from Value.
func NewEnvBinding(name, value string) EnvBinding {
	return EnvBinding{Name: name, Value: value, FromHost: hostRefPattern.MatchString(value)}
}

// VolumeMount binds a host path into the container.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	Mode          string
}

// PortMapping binds a host port to a container port.
type PortMapping struct {
	Host      int
	Container int
}

// ContainerDefinition is one entry of Configuration.Containers.
type ContainerDefinition struct {
	Name      string `validate:"required"`
	Image     ImageSource
	Command   []string
	Env       []EnvBinding
	WorkDir   string
	Volumes   []VolumeMount
	Ports     []PortMapping
	DependsOn []string
}

// RunConfig is a task's container invocation: the container to run plus
// overrides layered on top of its definition.
type RunConfig struct {
	Container string `validate:"required"`
	Command   []string
	Env       []EnvBinding
	Ports     []PortMapping
}

// TaskDefinition is one entry of Configuration.Tasks.
type TaskDefinition struct {
	Name          string `validate:"required"`
	Description   string
	Run           RunConfig `validate:"required"`
	DependsOn     []string
	Prerequisites []string
}

// Configuration is the immutable, fully-parsed project configuration.
type Configuration struct {
	ProjectName string `validate:"required"`
	Containers  map[string]ContainerDefinition
	Tasks       map[string]TaskDefinition
}
