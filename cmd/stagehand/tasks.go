package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stagehand-cli/stagehand/internal/config"
)

func newTasksCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks defined in the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configFile)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(cfg.Tasks))
			for name := range cfg.Tasks {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				task := cfg.Tasks[name]
				if task.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, task.Description)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
			}
			return nil
		},
	}
}

func loadConfig(path string) (*config.Configuration, error) {
	cfg, warnings, err := config.ParseConfig(path)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
