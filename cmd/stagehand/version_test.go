package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	t.Cleanup(func() {
		version, commit, date = originalVersion, originalCommit, originalDate
	})

	version, commit, date = "1.2.3", "abcdef1", "2026-07-30"

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())

	output := buf.String()
	require.Contains(t, output, "1.2.3")
	require.Contains(t, output, "abcdef1")
	require.Contains(t, output, "2026-07-30")
}

func TestUpgradeCommandReportsUpToDate(t *testing.T) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetArgs([]string{"upgrade"})

	require.NoError(t, root.Execute())
	require.Contains(t, buf.String(), "up to date")
}

func TestMapExitCode(t *testing.T) {
	require.Equal(t, 1, mapExitCode(-1))
	require.Equal(t, 0, mapExitCode(0))
	require.Equal(t, 7, mapExitCode(7))
}
