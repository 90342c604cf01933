package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepIdentityScopesByContainer(t *testing.T) {
	t.Parallel()

	a := Step{Kind: StepCreateContainer, Container: "db"}
	b := Step{Kind: StepCreateContainer, Container: "svc"}
	c := Step{Kind: StepStartContainer, Container: "db"}

	require.NotEqual(t, a.Identity(), b.Identity())
	require.NotEqual(t, a.Identity(), c.Identity())
	require.Equal(t, a.Identity(), Step{Kind: StepCreateContainer, Container: "db"}.Identity())
}

func TestStepIdentityScopesNetworkAndTaskSteps(t *testing.T) {
	t.Parallel()

	create := Step{Kind: StepCreateTaskNetwork}
	delete := Step{Kind: StepDeleteTaskNetwork}
	begin := Step{Kind: StepBeginTask}

	require.NotEqual(t, create.Identity(), delete.Identity())
	require.NotEqual(t, create.Identity(), begin.Identity())
}

func TestStepKindString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "WaitForContainerToBecomeHealthy", StepWaitForHealthy.String())
}
