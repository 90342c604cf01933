package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventKindIsFailure(t *testing.T) {
	t.Parallel()

	require.True(t, EventContainerCreationFailed.IsFailure())
	require.True(t, EventContainerDidNotBecomeHealthy.IsFailure())
	require.False(t, EventContainerCreated.IsFailure())
	require.False(t, EventTaskStarted.IsFailure())
}

func TestEventConstructorsPopulateFields(t *testing.T) {
	t.Parallel()

	created := NewContainerCreated("db", "handle-123")
	require.Equal(t, EventContainerCreated, created.Kind)
	require.Equal(t, "db", created.Container)
	require.Equal(t, "handle-123", created.Handle)
	require.NotEmpty(t, created.ID)
	require.False(t, created.Timestamp.IsZero())

	exited := NewRunningContainerExited("svc", 7)
	require.Equal(t, 7, exited.ExitCode)

	failed := NewImagePullFailed("svc", "alpine:latest", "no such host")
	require.True(t, failed.Kind.IsFailure())
	require.Equal(t, "alpine:latest", failed.ImageRef)
}

func TestEventKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ContainerBecameHealthy", EventContainerBecameHealthy.String())
	require.Contains(t, EventKind(999).String(), "EventKind")
}
