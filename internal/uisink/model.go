package uisink

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stagehand-cli/stagehand/internal/model"
)

// stepStartMsg, eventMsg and taskFailedMsg are the tea.Msg values Fancy sends
// into the running program as the manager calls its Sink methods.
type taskStartingMsg struct{ name string }
type stepStartMsg struct{ step model.Step }
type eventMsg struct{ event model.Event }
type taskFailedMsg struct{ reason string }

// dashboard is the bubbletea model rendering per-container progress as a
// state machine driven by orchestrator.Sink callbacks.
type dashboard struct {
	taskName      string
	order         []string
	containers    map[string]*containerView
	networkReady  bool
	finished      bool
	failureReason string
}

func newDashboard() dashboard {
	return dashboard{containers: map[string]*containerView{}}
}

func (d dashboard) Init() tea.Cmd { return nil }

func (d *dashboard) ensure(name string) *containerView {
	cv, ok := d.containers[name]
	if !ok {
		cv = &containerView{name: name, state: readyToAcquire}
		d.containers[name] = cv
		d.order = append(d.order, name)
	}
	return cv
}

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskStartingMsg:
		d.taskName = msg.name
	case stepStartMsg:
		if msg.step.Container != "" {
			d.ensure(msg.step.Container).onStep(msg.step, d.networkReady)
		}
	case eventMsg:
		if msg.event.Kind == model.EventTaskNetworkCreated {
			d.networkReady = true
		}
		if msg.event.Container != "" {
			d.ensure(msg.event.Container).onEvent(msg.event, d.networkReady)
		}
		if msg.event.Kind == model.EventRunningContainerExited || msg.event.Kind.IsFailure() {
			d.finished = true
		}
	case taskFailedMsg:
		d.finished = true
		d.failureReason = msg.reason
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			d.finished = true
			return d, tea.Quit
		}
	}
	return d, nil
}
