package eventlog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagehand-cli/stagehand/internal/model"
)

func TestLogPreservesPostingOrder(t *testing.T) {
	t.Parallel()

	log := New()
	log.Post(model.NewTaskStarted())
	log.Post(model.NewTaskNetworkCreated("net-1"))
	log.Post(model.NewContainerCreated("svc", "handle-1"))

	snapshot := log.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, model.EventTaskStarted, snapshot[0].Kind)
	require.Equal(t, model.EventTaskNetworkCreated, snapshot[1].Kind)
	require.Equal(t, model.EventContainerCreated, snapshot[2].Kind)
}

func TestLogFilterByKind(t *testing.T) {
	t.Parallel()

	log := New()
	log.Post(model.NewContainerCreated("svc", "h1"))
	log.Post(model.NewContainerCreated("db", "h2"))
	log.Post(model.NewContainerStarted("svc"))

	created := log.Filter(model.EventContainerCreated)
	require.Len(t, created, 2)
}

func TestLogFilterFuncByContainer(t *testing.T) {
	t.Parallel()

	log := New()
	log.Post(model.NewContainerCreated("svc", "h1"))
	log.Post(model.NewContainerCreated("db", "h2"))

	svcEvents := log.FilterFunc(func(e model.Event) bool { return e.Container == "svc" })
	require.Len(t, svcEvents, 1)
	require.Equal(t, "h1", svcEvents[0].Handle)
}

func TestLogOrderingUnderConcurrentPost(t *testing.T) {
	const writers = 50

	log := New()
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			log.Post(model.NewContainerStarted("svc"))
		}(i)
	}
	wg.Wait()

	require.Equal(t, writers, log.Len())
	require.Len(t, log.Snapshot(), writers)
}
