package config

import (
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	stagehanderrors "github.com/stagehand-cli/stagehand/pkg/errors"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// validatorInstance returns the process-wide validator.Validate singleton,
// initialized lazily on first use.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New()
	})
	return validatorInst
}

// ValidateConfig checks struct shape plus every cross-reference invariant:
// container/task name presence, dependency and prerequisite references
// resolve, no self-dependency, and both the container-level and task-level
// dependency relations are acyclic. Every
// problem found is aggregated into a single *multierror.Error rather than
// failing on the first (so `stagehand run` reports everything at once).
func ValidateConfig(cfg *Configuration) error {
	var result *multierror.Error

	for name, container := range cfg.Containers {
		if err := validatorInstance().Struct(container); err != nil {
			result = multierror.Append(result, stagehanderrors.NewConfigurationError(
				"containers."+name, err.Error(), err))
		}
		for _, dep := range container.DependsOn {
			if dep == name {
				result = multierror.Append(result, stagehanderrors.NewConfigurationError(
					"containers."+name+".dependencies", "container cannot depend on itself", nil))
				continue
			}
			if _, ok := cfg.Containers[dep]; !ok {
				result = multierror.Append(result, stagehanderrors.NewConfigurationError(
					"containers."+name+".dependencies", "references unknown container: "+dep, nil))
			}
		}
	}

	if err := detectContainerCycle(cfg.Containers); err != nil {
		result = multierror.Append(result, err)
	}

	for name, task := range cfg.Tasks {
		if err := validatorInstance().Struct(task); err != nil {
			result = multierror.Append(result, stagehanderrors.NewConfigurationError(
				"tasks."+name, err.Error(), err))
			continue
		}
		if _, ok := cfg.Containers[task.Run.Container]; !ok {
			result = multierror.Append(result, stagehanderrors.NewConfigurationError(
				"tasks."+name+".run.container", "references unknown container: "+task.Run.Container, nil))
		}
		for _, dep := range task.DependsOn {
			if _, ok := cfg.Containers[dep]; !ok {
				result = multierror.Append(result, stagehanderrors.NewConfigurationError(
					"tasks."+name+".dependencies", "references unknown container: "+dep, nil))
			}
		}
		for _, prereq := range task.Prerequisites {
			if _, ok := cfg.Tasks[prereq]; !ok {
				result = multierror.Append(result, stagehanderrors.NewConfigurationError(
					"tasks."+name+".prerequisites", "references unknown task: "+prereq, nil))
			}
		}
	}

	if err := detectPrerequisiteCycle(cfg.Tasks); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// coloring DFS states used by both cycle detectors.
type color int

const (
	white color = iota
	grey
	black
)

// detectContainerCycle runs a white/grey/black coloring DFS over the
// container-level dependency relation, naming the back edge on failure.
func detectContainerCycle(containers map[string]ContainerDefinition) error {
	colors := make(map[string]color, len(containers))
	var stack []string

	names := make([]string, 0, len(containers))
	for name := range containers {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(name string) error
	visit = func(name string) error {
		colors[name] = grey
		stack = append(stack, name)
		for _, dep := range containers[name].DependsOn {
			if _, ok := containers[dep]; !ok {
				continue // reported separately as an unresolved reference
			}
			switch colors[dep] {
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			case grey:
				return stagehanderrors.NewConfigurationError(
					"containers", "dependency cycle: "+cycleName(stack, dep), nil)
			}
		}
		stack = stack[:len(stack)-1]
		colors[name] = black
		return nil
	}

	for _, name := range names {
		if colors[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// detectPrerequisiteCycle mirrors detectContainerCycle over task
// prerequisites, checked here in addition to internal/order's own DFS so
// configuration errors surface before any step runs.
func detectPrerequisiteCycle(tasks map[string]TaskDefinition) error {
	colors := make(map[string]color, len(tasks))
	var stack []string

	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(name string) error
	visit = func(name string) error {
		colors[name] = grey
		stack = append(stack, name)
		for _, prereq := range tasks[name].Prerequisites {
			if _, ok := tasks[prereq]; !ok {
				continue
			}
			switch colors[prereq] {
			case white:
				if err := visit(prereq); err != nil {
					return err
				}
			case grey:
				return stagehanderrors.NewConfigurationError(
					"tasks", "prerequisite cycle: "+cycleName(stack, prereq), nil)
			}
		}
		stack = stack[:len(stack)-1]
		colors[name] = black
		return nil
	}

	for _, name := range names {
		if colors[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleName renders the grey stack from the back edge's target back to the
// current node as "A -> B -> A".
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

	rendered := cycle[0]
	for _, name := range cycle[1:] {
		rendered += " -> " + name
	}
	return rendered
}
