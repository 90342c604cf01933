// Package steprunner executes one dispatched step against the container
// daemon and posts exactly the event its contract promises.
package steprunner

import (
	"context"
	"fmt"
	"io"

	"github.com/stagehand-cli/stagehand/internal/daemon"
	"github.com/stagehand-cli/stagehand/internal/model"
)

// Poster is the event-log append operation steprunner needs. *eventlog.Log
// satisfies it without steprunner importing eventlog directly.
type Poster interface {
	Post(model.Event)
}

// Run executes step against d synchronously on the caller's goroutine,
// posting exactly one terminal event to sink — success or failure — except
// BuildImage, which may post zero-or-more ImageBuildProgress events before
// its terminal event. Run never panics out to the caller: any recovered
// panic is converted into the step's defined failure event, the same
// guarantee daemon errors already get.
func Run(ctx context.Context, step model.Step, d daemon.Daemon, sink Poster, stdout, stderr io.Writer) {
	defer func() {
		if r := recover(); r != nil {
			sink.Post(failureEventFor(step, fmt.Sprintf("panic: %v", r)))
		}
	}()

	switch step.Kind {
	case model.StepBeginTask:
		sink.Post(model.NewTaskStarted())

	case model.StepBuildImage:
		spec := daemon.BuildSpec{Container: step.Container, ContextDir: step.Image.BuildPath}
		imageID, err := d.Build(ctx, spec, func(line string) {
			sink.Post(model.NewImageBuildProgress(step.Container, line))
		})
		if err != nil {
			sink.Post(model.NewImageBuildFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewImageBuilt(step.Container, imageID))

	case model.StepPullImage:
		imageID, err := d.Pull(ctx, step.Image.PullRef)
		if err != nil {
			sink.Post(model.NewImagePullFailed(step.Container, step.Image.PullRef, err.Error()))
			return
		}
		sink.Post(model.NewImagePulled(step.Container, imageID))

	case model.StepCreateTaskNetwork:
		networkID, err := d.CreateBridgeNetwork(ctx)
		if err != nil {
			sink.Post(model.NewTaskNetworkCreationFailed(err.Error()))
			return
		}
		sink.Post(model.NewTaskNetworkCreated(networkID))

	case model.StepCreateContainer:
		handle, err := d.Create(ctx, daemon.CreateSpec{
			Container: step.Container,
			Command:   step.Command,
			Image:     resolvedImageRef(step),
			NetworkID: step.NetworkID,
			Env:       step.Env,
			Ports:     step.Ports,
			Volumes:   step.Volumes,
			WorkDir:   step.WorkDir,
		})
		if err != nil {
			sink.Post(model.NewContainerCreationFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewContainerCreated(step.Container, handle))

	case model.StepStartContainer:
		if err := d.Start(ctx, step.Handle); err != nil {
			sink.Post(model.NewContainerStartFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewContainerStarted(step.Container))

	case model.StepWaitForHealthy:
		status, err := d.WaitForHealthStatus(ctx, step.Handle)
		if err != nil {
			sink.Post(model.NewContainerDidNotBecomeHealthy(step.Container, err.Error()))
			return
		}
		switch status {
		case daemon.NoHealthCheck, daemon.BecameHealthy:
			sink.Post(model.NewContainerBecameHealthy(step.Container))
		default:
			sink.Post(model.NewContainerDidNotBecomeHealthy(step.Container, "container reported "+healthStatusName(status)))
		}

	case model.StepRunContainer:
		result, err := d.Run(ctx, step.Handle, stdout, stderr)
		if err != nil {
			// The mapping table defines no failure event for RunContainer
			// itself (a nonzero exit is not a step failure); an error here
			// means the daemon call failed before the container could even
			// run, which is closest in kind to a start failure.
			sink.Post(model.NewContainerStartFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewRunningContainerExited(step.Container, result.ExitCode))

	case model.StepStopContainer:
		if err := d.Stop(ctx, step.Handle); err != nil {
			sink.Post(model.NewContainerStopFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewContainerStopped(step.Container))

	case model.StepRemoveContainer:
		if err := d.Remove(ctx, step.Handle); err != nil {
			sink.Post(model.NewContainerRemovalFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewContainerRemoved(step.Container))

	case model.StepCleanUpContainer:
		// ForciblyRemove collapses ContainerDoesNotExist into success so
		// cleanup stays idempotent.
		if err := d.ForciblyRemove(ctx, step.Handle); err != nil {
			sink.Post(model.NewContainerRemovalFailed(step.Container, err.Error()))
			return
		}
		sink.Post(model.NewContainerRemoved(step.Container))

	case model.StepDeleteTaskNetwork:
		if err := d.DeleteNetwork(ctx, step.NetworkID); err != nil {
			sink.Post(model.NewTaskNetworkDeletionFailed(err.Error()))
			return
		}
		sink.Post(model.NewTaskNetworkDeleted())

	case model.StepFinishTask, model.StepDisplayTaskFailure:
		// These carry no daemon call and post no event; the orchestrator
		// dispatches them directly to the UI sink instead of through Run.
	}
}

func resolvedImageRef(step model.Step) string {
	if step.ImageID != "" {
		return step.ImageID
	}
	if step.Image.Kind == model.ImageSourcePull {
		return step.Image.PullRef
	}
	return step.Container
}

func healthStatusName(status daemon.HealthStatus) string {
	switch status {
	case daemon.BecameUnhealthy:
		return "unhealthy"
	case daemon.Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// failureEventFor maps a step to the failure event its contract defines,
// used to convert a recovered panic into the expected event.
func failureEventFor(step model.Step, msg string) model.Event {
	switch step.Kind {
	case model.StepBuildImage:
		return model.NewImageBuildFailed(step.Container, msg)
	case model.StepPullImage:
		return model.NewImagePullFailed(step.Container, step.Image.PullRef, msg)
	case model.StepCreateTaskNetwork:
		return model.NewTaskNetworkCreationFailed(msg)
	case model.StepCreateContainer:
		return model.NewContainerCreationFailed(step.Container, msg)
	case model.StepStartContainer, model.StepRunContainer:
		return model.NewContainerStartFailed(step.Container, msg)
	case model.StepWaitForHealthy:
		return model.NewContainerDidNotBecomeHealthy(step.Container, msg)
	case model.StepStopContainer:
		return model.NewContainerStopFailed(step.Container, msg)
	case model.StepRemoveContainer, model.StepCleanUpContainer:
		return model.NewContainerRemovalFailed(step.Container, msg)
	case model.StepDeleteTaskNetwork:
		return model.NewTaskNetworkDeletionFailed(msg)
	default:
		return model.NewContainerCreationFailed(step.Container, msg)
	}
}
