// Package uisink provides the two orchestrator.Sink implementations stagehand
// ships: a line-at-a-time logger for piped/non-interactive output, and a
// full-screen bubbletea program for an interactive terminal.
package uisink

import (
	"strconv"

	"github.com/stagehand-cli/stagehand/internal/logger"
	"github.com/stagehand-cli/stagehand/internal/model"
)

// Simple renders task progress as one log line per event or step, suited to
// piped output, CI logs, or --simple-output.
type Simple struct {
	log *logger.Logger
}

// NewSimple constructs a Simple sink writing through log.
func NewSimple(log *logger.Logger) *Simple {
	return &Simple{log: log}
}

func (s *Simple) OnTaskStarting(taskName string) {
	s.log.WithFields(map[string]any{"task": taskName}).Info("task starting")
}

func (s *Simple) OnStepStarting(step model.Step) {
	fields := map[string]any{"step": step.Kind.String()}
	if step.Container != "" {
		fields["container"] = step.Container
	}
	s.log.WithFields(fields).Debug("step starting")
}

func (s *Simple) OnEventPosted(event model.Event) {
	fields := map[string]any{"event": event.Kind.String()}
	if event.Container != "" {
		fields["container"] = event.Container
	}
	if event.Kind == model.EventRunningContainerExited {
		fields["exit_code"] = strconv.Itoa(event.ExitCode)
	}

	log := s.log.WithFields(fields)
	switch {
	case event.Kind.IsFailure():
		log.Error(nil, event.Message)
	case event.Message != "":
		log.Info(event.Message)
	default:
		log.Info("event posted")
	}
}

func (s *Simple) OnTaskFailed(reason string) {
	s.log.WithFields(map[string]any{"reason": reason}).Error(nil, "task failed")
}
