package config

import (
	"strings"

	"github.com/mattn/go-shellwords"

	stagehanderrors "github.com/stagehand-cli/stagehand/pkg/errors"
)

// ParseCommand splits a shell-style command line into argv, the same way a
// shell would word-split it (quoting, escaping). An empty line parses to a
// nil argv (no command override).
func ParseCommand(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	argv, err := shellwords.Parse(line)
	if err != nil {
		return nil, stagehanderrors.NewConfigurationError("command", "invalid command: "+err.Error(), err)
	}
	return argv, nil
}

// RenderCommand is the inverse of ParseCommand: it renders argv back into a
// single shell-style line such that ParseCommand(RenderCommand(argv)) == argv
// for any argv that does not itself contain unbalanced quotes.
func RenderCommand(argv []string) string {
	rendered := make([]string, len(argv))
	for i, arg := range argv {
		rendered[i] = quoteShellArg(arg)
	}
	return strings.Join(rendered, " ")
}

// quoteShellArg quotes a single argv element only when necessary, using
// single quotes (escaped as '\'' for any embedded single quote) so the
// result round-trips through ParseCommand unchanged.
func quoteShellArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`;&|<>") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
