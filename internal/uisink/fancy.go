package uisink

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stagehand-cli/stagehand/internal/model"
)

// Fancy is a full-screen bubbletea program rendering per-container progress,
// for interactive terminal sessions.
type Fancy struct {
	program *tea.Program
}

// NewFancy constructs a Fancy sink writing to out. Run must be called (in its
// own goroutine, typically) to drive the program; the manager only ever calls
// the Sink methods, which forward into it as tea.Msg values.
func NewFancy(out io.Writer) *Fancy {
	program := tea.NewProgram(newDashboard(), tea.WithOutput(out))
	return &Fancy{program: program}
}

// Run drives the bubbletea event loop until the program quits. Call it once,
// concurrently with the orchestrator run it is observing.
func (f *Fancy) Run() error {
	_, err := f.program.Run()
	return err
}

// Quit stops the program, for use once the orchestrator run returns.
func (f *Fancy) Quit() {
	f.program.Quit()
}

func (f *Fancy) OnTaskStarting(taskName string) { f.program.Send(taskStartingMsg{name: taskName}) }

func (f *Fancy) OnStepStarting(step model.Step) { f.program.Send(stepStartMsg{step: step}) }

func (f *Fancy) OnEventPosted(event model.Event) { f.program.Send(eventMsg{event: event}) }

func (f *Fancy) OnTaskFailed(reason string) { f.program.Send(taskFailedMsg{reason: reason}) }
