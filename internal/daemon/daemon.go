// Package daemon is the container daemon abstraction: the only operations
// the engine requires from an external container runtime.
package daemon

import (
	"context"
	"io"

	"github.com/stagehand-cli/stagehand/internal/model"
)

// HealthStatus is the outcome of WaitForHealthStatus.
type HealthStatus int

const (
	NoHealthCheck HealthStatus = iota
	BecameHealthy
	BecameUnhealthy
	Exited
)

// BuildSpec describes an image build request.
type BuildSpec struct {
	ProjectName string
	Container   string
	ContextDir  string
}

// CreateSpec describes a container creation request.
type CreateSpec struct {
	Container string
	Command   []string
	Image     string
	NetworkID string
	Env       []model.EnvVar
	Ports     []model.PortMapping
	Volumes   []model.VolumeMount
	WorkDir   string
}

// RunResult is the outcome of a blocking RunContainer call.
type RunResult struct {
	ExitCode int
}

// Daemon is the container daemon abstraction. Each method may return a
// typed failure; the engine never inspects failure content except to
// forward it verbatim as an event's message field.
type Daemon interface {
	Build(ctx context.Context, spec BuildSpec, onProgress func(line string)) (imageID string, err error)
	Pull(ctx context.Context, ref string) (imageID string, err error)
	CreateBridgeNetwork(ctx context.Context) (networkID string, err error)
	DeleteNetwork(ctx context.Context, networkID string) error
	Create(ctx context.Context, spec CreateSpec) (handle string, err error)
	Start(ctx context.Context, handle string) error
	// Run blocks, forwarding stdio to stdout/stderr, until the container exits.
	Run(ctx context.Context, handle string, stdout, stderr io.Writer) (RunResult, error)
	WaitForHealthStatus(ctx context.Context, handle string) (HealthStatus, error)
	Stop(ctx context.Context, handle string) error
	Remove(ctx context.Context, handle string) error
	// ForciblyRemove is tolerant of the handle already being gone.
	ForciblyRemove(ctx context.Context, handle string) error
}
