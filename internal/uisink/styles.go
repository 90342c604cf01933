package uisink

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)

	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

func stateIcon(s containerDisplayState) string {
	switch s {
	case done:
		return doneStyle.Render("✓")
	case failedState:
		return failedStyle.Render("✗")
	case readyToAcquire:
		return pendingStyle.Render("…")
	default:
		return activeStyle.Render("⏳")
	}
}
