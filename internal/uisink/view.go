package uisink

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (d dashboard) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("stagehand • %s", d.taskName)))

	if len(d.order) > 0 {
		sections = append(sections, sectionStyle.Render("Containers"))
		var lines []string
		for _, name := range d.order {
			cv := d.containers[name]
			line := fmt.Sprintf(" %s %s — %s", stateIcon(cv.state), cv.name, cv.state.label())
			if strings.TrimSpace(cv.message) != "" {
				line += " (" + cv.message + ")"
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if d.finished {
		summary := "Task finished"
		if d.failureReason != "" {
			summary = "Task failed: " + d.failureReason
		}
		sections = append(sections, summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
