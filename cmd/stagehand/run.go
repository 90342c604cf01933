package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stagehand-cli/stagehand/internal/daemon"
	"github.com/stagehand-cli/stagehand/internal/graph"
	"github.com/stagehand-cli/stagehand/internal/logger"
	"github.com/stagehand-cli/stagehand/internal/order"
	"github.com/stagehand-cli/stagehand/internal/orchestrator"
	"github.com/stagehand-cli/stagehand/internal/uisink"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task>",
		Short: "Run a task and its prerequisites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode, err := runTask(cmd, root, args[0])
			if err != nil {
				return err
			}
			if exitCode != 0 {
				os.Exit(exitCode)
			}
			return nil
		},
	}
}

func runTask(cmd *cobra.Command, root *rootFlags, target string) (int, error) {
	cfg, err := loadConfig(root.configFile)
	if err != nil {
		return 1, err
	}

	taskOrder, err := order.Resolve(cfg, target)
	if err != nil {
		return 1, err
	}

	level := "info"
	if root.quiet {
		level = "error"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: !root.noColor, Writer: os.Stderr, Component: "stagehand"})
	if err != nil {
		return 1, err
	}

	interactive := !root.simpleOutput && !root.noColor && term.IsTerminal(int(os.Stdout.Fd()))

	d, err := daemon.NewDockerClient()
	if err != nil {
		return 1, fmt.Errorf("connect to container daemon: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	interrupted := make(chan struct{}, 1)
	sigintCount := make(chan os.Signal, 2)
	signal.Notify(sigintCount, syscall.SIGINT)
	defer signal.Stop(sigintCount)
	go func() {
		first := true
		for range sigintCount {
			if first {
				first = false
				interrupted <- struct{}{}
				continue
			}
			stop()
		}
	}()

	for _, taskName := range taskOrder {
		g, err := graph.Build(cfg, cfg.Tasks[taskName])
		if err != nil {
			return 1, err
		}

		var sink orchestrator.Sink
		var fancy *uisink.Fancy
		if interactive {
			fancy = uisink.NewFancy(cmd.OutOrStdout())
			sink = fancy
		} else {
			sink = uisink.NewSimple(log)
		}

		mgr := orchestrator.New(taskName, g, d, sink)
		mgr.Stdout = cmd.OutOrStdout()
		mgr.Stderr = cmd.ErrOrStderr()

		var (
			exitCode int
			runErr   error
			done     = make(chan struct{})
		)
		go func() {
			defer close(done)
			exitCode, runErr = mgr.Run(ctx, interrupted)
		}()

		if fancy != nil {
			go func() {
				<-done
				fancy.Quit()
			}()
			_ = fancy.Run()
		}
		<-done

		if runErr != nil {
			return mapExitCode(exitCode), runErr
		}
		if exitCode != 0 {
			return mapExitCode(exitCode), nil
		}
	}

	return 0, nil
}

// mapExitCode maps the orchestrator's -1 ("no observed root exit code", e.g.
// failure or interruption) onto the conventional shell failure code 1.
func mapExitCode(code int) int {
	if code == -1 {
		return 1
	}
	return code
}
