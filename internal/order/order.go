// Package order resolves a task's linear execution order: the target task
// preceded by every prerequisite it transitively names, each appearing
// exactly once, in left-to-right depth-first discovery order.
package order

import (
	stagehanderrors "github.com/stagehand-cli/stagehand/pkg/errors"

	"github.com/stagehand-cli/stagehand/internal/config"
)

type color int

const (
	white color = iota
	grey
	black
)

// Resolve returns the linear order in which target and its prerequisites
// should run: a depth-first, left-to-right expansion of prerequisites, each
// task name appearing once, at the position of its first discovery, with
// target itself always last. A prerequisite cycle is reported by name.
func Resolve(cfg *config.Configuration, target string) ([]string, error) {
	if _, ok := cfg.Tasks[target]; !ok {
		return nil, stagehanderrors.NewConfigurationError("task", "references unknown task: "+target, nil)
	}

	colors := make(map[string]color, len(cfg.Tasks))
	var order []string
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		task, ok := cfg.Tasks[name]
		if !ok {
			return stagehanderrors.NewConfigurationError("task", "references unknown task: "+name, nil)
		}

		colors[name] = grey
		stack = append(stack, name)
		for _, prereq := range task.Prerequisites {
			switch colors[prereq] {
			case white:
				if err := visit(prereq); err != nil {
					return err
				}
			case grey:
				return stagehanderrors.NewConfigurationError(
					"tasks", "prerequisite cycle: "+cycleName(stack, prereq), nil)
			case black:
				// already resolved and appended; left-to-right dedup on
				// first encounter means later mentions are no-ops.
			}
		}
		stack = stack[:len(stack)-1]
		colors[name] = black
		order = append(order, name)
		return nil
	}

	if err := visit(target); err != nil {
		return nil, err
	}
	return order, nil
}

func cycleName(stack []string, closingTo string) string {
	start := 0
	for i, name := range stack {
		if name == closingTo {
			start = i
			break
		}
	}
	cycle := append([]string{}, stack[start:]...)
	cycle = append(cycle, closingTo)

	out := cycle[0]
	for _, name := range cycle[1:] {
		out += " -> " + name
	}
	return out
}
