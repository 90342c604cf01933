package daemon

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Fake is an in-memory daemon.Daemon used by orchestrator and step runner
// tests. Every operation succeeds deterministically unless preconfigured to
// fail via the Fail* maps, letting tests exercise both the happy path and
// partial-failure scenarios without a real container runtime.
type Fake struct {
	mu sync.Mutex

	FailPull        map[string]string
	FailCreate      map[string]string
	FailStart       map[string]string
	UnhealthyAfter  map[string]bool
	ExitCodes       map[string]int
	handleToContainer map[string]string
	nextHandle      int
}

// NewFake constructs an empty Fake daemon.
func NewFake() *Fake {
	return &Fake{
		FailPull:          map[string]string{},
		FailCreate:        map[string]string{},
		FailStart:         map[string]string{},
		UnhealthyAfter:    map[string]bool{},
		ExitCodes:         map[string]int{},
		handleToContainer: map[string]string{},
	}
}

func (f *Fake) Build(_ context.Context, spec BuildSpec, onProgress func(string)) (string, error) {
	if onProgress != nil {
		onProgress("building " + spec.Container)
	}
	return "image-" + spec.Container, nil
}

func (f *Fake) Pull(_ context.Context, ref string) (string, error) {
	if msg, fail := f.FailPull[ref]; fail {
		return "", fmt.Errorf("%s", msg)
	}
	return "image-" + ref, nil
}

func (f *Fake) CreateBridgeNetwork(context.Context) (string, error) {
	return "network-1", nil
}

func (f *Fake) DeleteNetwork(context.Context, string) error {
	return nil
}

func (f *Fake) Create(_ context.Context, spec CreateSpec) (string, error) {
	if msg, fail := f.FailCreate[spec.Container]; fail {
		return "", fmt.Errorf("%s", msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHandle++
	handle := fmt.Sprintf("handle-%s-%d", spec.Container, f.nextHandle)
	f.handleToContainer[handle] = spec.Container
	return handle, nil
}

func (f *Fake) Start(_ context.Context, handle string) error {
	f.mu.Lock()
	container := f.handleToContainer[handle]
	f.mu.Unlock()
	if msg, fail := f.FailStart[container]; fail {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (f *Fake) Run(_ context.Context, handle string, _, _ io.Writer) (RunResult, error) {
	f.mu.Lock()
	container := f.handleToContainer[handle]
	code := f.ExitCodes[container]
	f.mu.Unlock()
	return RunResult{ExitCode: code}, nil
}

func (f *Fake) WaitForHealthStatus(_ context.Context, handle string) (HealthStatus, error) {
	f.mu.Lock()
	container := f.handleToContainer[handle]
	unhealthy := f.UnhealthyAfter[container]
	f.mu.Unlock()
	if unhealthy {
		return BecameUnhealthy, nil
	}
	return BecameHealthy, nil
}

func (f *Fake) Stop(context.Context, string) error {
	return nil
}

func (f *Fake) Remove(context.Context, string) error {
	return nil
}

func (f *Fake) ForciblyRemove(context.Context, string) error {
	return nil
}
