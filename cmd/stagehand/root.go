package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "stagehand",
		Short:         "stagehand runs containerized tasks from a declarative config",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config-file", "f", "stagehand.yml", "path to the task configuration file")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored/fancy output")
	cmd.PersistentFlags().BoolVar(&flags.simpleOutput, "simple-output", false, "force line-at-a-time output even on a terminal")
	cmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress all but error output")
	cmd.PersistentFlags().BoolVar(&flags.noUpdateNotification, "no-update-notification", false, "don't check for a newer release")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newTasksCmd(flags))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newUpgradeCmd())

	return cmd
}
