package uisink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagehand-cli/stagehand/internal/model"
)

func TestDashboardTracksTaskNameAndContainers(t *testing.T) {
	t.Parallel()

	d := newDashboard()
	updated, _ := d.Update(taskStartingMsg{name: "build"})
	d = updated.(dashboard)
	require.Equal(t, "build", d.taskName)

	updated, _ = d.Update(stepStartMsg{step: model.Step{Kind: model.StepPullImage, Container: "db"}})
	d = updated.(dashboard)
	require.Equal(t, []string{"db"}, d.order)
	require.Equal(t, pulling, d.containers["db"].state)
}

func TestDashboardMarksNetworkReadyFromEvent(t *testing.T) {
	t.Parallel()

	d := newDashboard()
	updated, _ := d.Update(eventMsg{event: model.NewTaskNetworkCreated("net-1")})
	d = updated.(dashboard)
	require.True(t, d.networkReady)
}

func TestDashboardFinishesOnRootExit(t *testing.T) {
	t.Parallel()

	d := newDashboard()
	updated, _ := d.Update(eventMsg{event: model.NewRunningContainerExited("svc", 0)})
	d = updated.(dashboard)
	require.True(t, d.finished)
}

func TestDashboardRecordsTaskFailure(t *testing.T) {
	t.Parallel()

	d := newDashboard()
	updated, _ := d.Update(taskFailedMsg{reason: "db: timed out"})
	d = updated.(dashboard)
	require.True(t, d.finished)
	require.Equal(t, "db: timed out", d.failureReason)
}
