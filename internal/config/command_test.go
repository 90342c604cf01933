package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommandEmptyLineYieldsNil(t *testing.T) {
	t.Parallel()

	argv, err := ParseCommand("  ")
	require.NoError(t, err)
	require.Nil(t, argv)
}

func TestParseCommandInvalidQuotingIsConfigurationError(t *testing.T) {
	t.Parallel()

	_, err := ParseCommand(`echo "unterminated`)
	require.Error(t, err)

	var configErr interface{ Error() string }
	require.ErrorAs(t, err, &configErr)
}

func TestCommandRoundTrip(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"echo", "hi"},
		{"sh", "-c", "echo hello world"},
		{"bash", "-c", "echo 'it''s fine'"},
		{"printf", ""},
		{"ls", "/path with spaces/dir"},
	}

	for _, argv := range cases {
		rendered := RenderCommand(argv)
		parsed, err := ParseCommand(rendered)
		require.NoError(t, err)
		require.Equal(t, argv, parsed, "round trip for %v via %q", argv, rendered)
	}
}
