package uisink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagehand-cli/stagehand/internal/model"
)

func TestContainerViewTracksBuildThenImageReady(t *testing.T) {
	t.Parallel()

	cv := &containerView{name: "svc", state: readyToAcquire}
	cv.onStep(model.Step{Kind: model.StepBuildImage, Container: "svc"}, false)
	require.Equal(t, building, cv.state)

	cv.onEvent(model.NewImageBuilt("svc", "sha256:abc"), false)
	require.Equal(t, imageReadyWaitingNetwork, cv.state)

	cv.onEvent(model.NewImageBuilt("svc", "sha256:abc"), true)
	require.Equal(t, waitingForDependencies, cv.state)
}

func TestContainerViewTracksFullDependencyLifecycle(t *testing.T) {
	t.Parallel()

	cv := &containerView{name: "db", state: readyToAcquire}
	cv.onStep(model.Step{Kind: model.StepPullImage, Container: "db"}, false)
	require.Equal(t, pulling, cv.state)

	cv.onStep(model.Step{Kind: model.StepCreateContainer, Container: "db"}, true)
	require.Equal(t, creating, cv.state)

	cv.onStep(model.Step{Kind: model.StepStartContainer, Container: "db"}, true)
	require.Equal(t, starting, cv.state)

	cv.onEvent(model.NewContainerStarted("db"), true)
	require.Equal(t, startedWaitingHealthy, cv.state)

	cv.onEvent(model.NewContainerBecameHealthy("db"), true)
	require.Equal(t, done, cv.state)
}

func TestContainerViewCapturesFailureMessage(t *testing.T) {
	t.Parallel()

	cv := &containerView{name: "svc", state: readyToAcquire}
	cv.onEvent(model.NewContainerCreationFailed("svc", "port in use"), true)
	require.Equal(t, failedState, cv.state)
	require.Equal(t, "port in use", cv.message)
}

func TestContainerViewIgnoresEventsForOtherContainers(t *testing.T) {
	t.Parallel()

	cv := &containerView{name: "svc", state: readyToAcquire}
	cv.onEvent(model.NewContainerBecameHealthy("db"), true)
	require.Equal(t, readyToAcquire, cv.state)
}
