package uisink

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagehand-cli/stagehand/internal/logger"
	"github.com/stagehand-cli/stagehand/internal/model"
)

func newTestSimple(t *testing.T) (*Simple, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)
	return NewSimple(log), buf
}

func lastLine(buf *bytes.Buffer) map[string]any {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	_ = json.Unmarshal([]byte(lines[len(lines)-1]), &entry)
	return entry
}

func TestSimpleLogsTaskStarting(t *testing.T) {
	t.Parallel()

	sink, buf := newTestSimple(t)
	sink.OnTaskStarting("build")

	entry := lastLine(buf)
	require.Equal(t, "task starting", entry["msg"])
	require.Equal(t, "build", entry["task"])
}

func TestSimpleLogsFailureEventsAtErrorLevel(t *testing.T) {
	t.Parallel()

	sink, buf := newTestSimple(t)
	sink.OnEventPosted(model.NewContainerDidNotBecomeHealthy("db", "timed out"))

	entry := lastLine(buf)
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "db", entry["container"])
}

func TestSimpleLogsTaskFailed(t *testing.T) {
	t.Parallel()

	sink, buf := newTestSimple(t)
	sink.OnTaskFailed("db: timed out")

	entry := lastLine(buf)
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "db: timed out", entry["reason"])
}
