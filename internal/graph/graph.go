// Package graph builds the immutable container dependency graph rooted at a
// task's container: the task's container plus the transitive closure of its
// dependencies, each node carrying its effective command/env/ports.
package graph

import (
	"sort"

	"github.com/golang-collections/collections/queue"

	"github.com/stagehand-cli/stagehand/internal/config"
	"github.com/stagehand-cli/stagehand/internal/model"
	stagehanderrors "github.com/stagehand-cli/stagehand/pkg/errors"
)

// Node is one container resolved in the context of a task: its definition
// plus the effective command/env/ports layered (task override > container
// command > image default; env/ports union with task winning on conflict),
// and its dependency edges within this task's graph.
type Node struct {
	Name       string
	Image      model.ImageSource
	Command    []string
	Env        []model.EnvVar
	Ports      []model.PortMapping
	Volumes    []model.VolumeMount
	WorkDir    string
	DependsOn  []string
	Dependents []string
	IsRoot     bool
}

// Graph is the immutable, per-task container dependency DAG.
type Graph struct {
	Root  string
	Nodes map[string]*Node
}

// Node returns the named node, or nil if absent.
func (g *Graph) Node(name string) *Node {
	return g.Nodes[name]
}

// Predecessors returns the names of nodes that name depends on.
func (g *Graph) Predecessors(name string) []string {
	if n := g.Nodes[name]; n != nil {
		return n.DependsOn
	}
	return nil
}

// Successors returns the names of nodes that depend on name.
func (g *Graph) Successors(name string) []string {
	if n := g.Nodes[name]; n != nil {
		return n.Dependents
	}
	return nil
}

// All returns every node name in deterministic (sorted) order.
func (g *Graph) All() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves the container dependency graph for task: a breadth-first
// walk over dependencies from the task's root container,
// deduplicated, followed by a coloring-DFS acyclicity check that names the
// offending edge on failure. Reachability and single-root are invariants of
// construction: every node visited by the BFS is, by definition, reachable
// from root, and root is fixed before the walk begins.
func Build(cfg *config.Configuration, task config.TaskDefinition) (*Graph, error) {
	rootName := task.Run.Container
	if _, ok := cfg.Containers[rootName]; !ok {
		return nil, stagehanderrors.NewConfigurationError(
			"tasks."+task.Name+".run.container", "references unknown container: "+rootName, nil)
	}

	nodes := make(map[string]*Node)

	// BFS transitive closure over `dependencies`, using a real FIFO queue
	// rather than a hand-rolled slice-as-queue.
	q := queue.New()
	q.Enqueue(rootName)
	visited := map[string]struct{}{rootName: {}}

	for q.Len() > 0 {
		name, _ := q.Dequeue().(string)
		def := cfg.Containers[name]

		deps := append([]string{}, def.DependsOn...)
		if name == rootName {
			deps = append(deps, task.DependsOn...)
		}

		for _, dep := range deps {
			if dep == name {
				return nil, stagehanderrors.NewConfigurationError(
					"containers."+name+".dependencies", "container cannot depend on itself", nil)
			}
			if _, ok := cfg.Containers[dep]; !ok {
				return nil, stagehanderrors.NewConfigurationError(
					"containers."+name+".dependencies", "references unknown container: "+dep, nil)
			}
			if _, ok := visited[dep]; !ok {
				visited[dep] = struct{}{}
				q.Enqueue(dep)
			}
		}
	}

	for name := range visited {
		def := cfg.Containers[name]
		deps := append([]string{}, def.DependsOn...)
		if name == rootName {
			deps = append(deps, task.DependsOn...)
		}
		nodes[name] = &Node{
			Name:      name,
			Image:     convertImage(def.Image),
			WorkDir:   def.WorkDir,
			Volumes:   convertVolumes(def.Volumes),
			DependsOn: dedupe(deps),
			IsRoot:    name == rootName,
		}
	}

	for name, node := range nodes {
		for _, dep := range node.DependsOn {
			nodes[dep].Dependents = append(nodes[dep].Dependents, name)
		}
	}
	for _, node := range nodes {
		sort.Strings(node.Dependents)
	}

	if err := detectCycle(nodes, rootName); err != nil {
		return nil, err
	}

	if err := applyEffectiveSettings(nodes, cfg, task, rootName); err != nil {
		return nil, err
	}

	return &Graph{Root: rootName, Nodes: nodes}, nil
}

// applyEffectiveSettings resolves each node's effective command/env/ports:
// task override beats container command beats image default for command;
// env/ports union with the task-level value winning on name/container
// conflict. Env values are interpolated against the host environment here,
// before any node is handed to the planner, so a missing host variable
// aborts the build rather than reaching the daemon.
func applyEffectiveSettings(nodes map[string]*Node, cfg *config.Configuration, task config.TaskDefinition, rootName string) error {
	for name, node := range nodes {
		def := cfg.Containers[name]
		node.Command = convertCommand(def.Command)
		env, err := convertEnv(def.Env)
		if err != nil {
			return err
		}
		node.Env = env
		node.Ports = convertPorts(def.Ports)
	}

	root := nodes[rootName]
	if len(task.Run.Command) > 0 {
		root.Command = append([]string{}, task.Run.Command...)
	}
	taskEnv, err := convertEnv(task.Run.Env)
	if err != nil {
		return err
	}
	root.Env = mergeEnv(root.Env, taskEnv)
	root.Ports = mergePorts(root.Ports, convertPorts(task.Run.Ports))
	return nil
}

func convertImage(src config.ImageSource) model.ImageSource {
	kind := model.ImageSourceBuild
	if src.Kind == config.ImageSourcePull {
		kind = model.ImageSourcePull
	}
	return model.ImageSource{Kind: kind, BuildPath: src.BuildPath, PullRef: src.PullRef}
}

func convertCommand(argv []string) []string {
	if len(argv) == 0 {
		return nil
	}
	return append([]string{}, argv...)
}

// convertEnv interpolates $NAME/${NAME} host references in bindings (via
// config.InterpolateEnv) and converts the resolved values to model.EnvVar.
// A reference to an unset host variable surfaces as the ConfigurationError
// InterpolateEnv produces, naming the missing variable.
func convertEnv(bindings []config.EnvBinding) ([]model.EnvVar, error) {
	if len(bindings) == 0 {
		return nil, nil
	}
	resolved, err := config.InterpolateEnv(bindings, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.EnvVar, 0, len(resolved))
	for _, v := range resolved {
		out = append(out, model.EnvVar{Name: v.Name, Value: v.Value})
	}
	return out, nil
}

func convertPorts(ports []config.PortMapping) []model.PortMapping {
	if len(ports) == 0 {
		return nil
	}
	out := make([]model.PortMapping, 0, len(ports))
	for _, p := range ports {
		out = append(out, model.PortMapping{Host: p.Host, Container: p.Container})
	}
	return out
}

func convertVolumes(volumes []config.VolumeMount) []model.VolumeMount {
	if len(volumes) == 0 {
		return nil
	}
	out := make([]model.VolumeMount, 0, len(volumes))
	for _, v := range volumes {
		out = append(out, model.VolumeMount{HostPath: v.HostPath, ContainerPath: v.ContainerPath, Mode: v.Mode})
	}
	return out
}

// mergeEnv unions two env lists by name, with override winning on conflict.
func mergeEnv(base, override []model.EnvVar) []model.EnvVar {
	if len(override) == 0 {
		return base
	}
	byName := make(map[string]model.EnvVar, len(base)+len(override))
	order := make([]string, 0, len(base)+len(override))
	for _, v := range base {
		byName[v.Name] = v
		order = append(order, v.Name)
	}
	for _, v := range override {
		if _, ok := byName[v.Name]; !ok {
			order = append(order, v.Name)
		}
		byName[v.Name] = v
	}
	out := make([]model.EnvVar, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// mergePorts unions two port lists by container port, with override winning
// on conflict.
func mergePorts(base, override []model.PortMapping) []model.PortMapping {
	if len(override) == 0 {
		return base
	}
	byContainer := make(map[int]model.PortMapping, len(base)+len(override))
	order := make([]int, 0, len(base)+len(override))
	for _, p := range base {
		byContainer[p.Container] = p
		order = append(order, p.Container)
	}
	for _, p := range override {
		if _, ok := byContainer[p.Container]; !ok {
			order = append(order, p.Container)
		}
		byContainer[p.Container] = p
	}
	out := make([]model.PortMapping, 0, len(order))
	for _, c := range order {
		out = append(out, byContainer[c])
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// color marks coloring-DFS node state.
type color int

const (
	white color = iota
	grey
	black
)

// detectCycle runs a white/grey/black coloring DFS, naming the back edge
// when one is found.
func detectCycle(nodes map[string]*Node, root string) error {
	colors := make(map[string]color, len(nodes))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		colors[name] = grey
		stack = append(stack, name)
		for _, dep := range nodes[name].DependsOn {
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

	return visit(root)
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

	rendered := cycle[0]
	for _, name := range cycle[1:] {
		rendered += " -> " + name
	}
	return rendered
}
