package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	stagehanderrors "github.com/stagehand-cli/stagehand/pkg/errors"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

type rawVolume struct {
	Local     string `yaml:"local"`
	Container string `yaml:"container"`
	Options   string `yaml:"options"`
}

type rawPort struct {
	Local     int `yaml:"local"`
	Container int `yaml:"container"`
}

type rawContainer struct {
	Build            *string           `yaml:"build"`
	Image            *string           `yaml:"image"`
	Command          string            `yaml:"command"`
	Environment      map[string]string `yaml:"environment"`
	WorkingDirectory string            `yaml:"working_directory"`
	Volumes          []rawVolume       `yaml:"volumes"`
	Ports            []rawPort         `yaml:"ports"`
	Dependencies     []string          `yaml:"dependencies"`
	Start            []string          `yaml:"start"`
}

type rawRunConfig struct {
	Container   string            `yaml:"container"`
	Command     string            `yaml:"command"`
	Environment map[string]string `yaml:"environment"`
	Ports       []rawPort         `yaml:"ports"`
}

type rawTask struct {
	Description   string       `yaml:"description"`
	Run           rawRunConfig `yaml:"run"`
	Dependencies  []string     `yaml:"dependencies"`
	Start         []string     `yaml:"start"`
	Prerequisites []string     `yaml:"prerequisites"`
}

type rawConfig struct {
	ProjectName string                  `yaml:"project_name"`
	Containers  map[string]rawContainer `yaml:"containers"`
	Tasks       map[string]rawTask      `yaml:"tasks"`
}

// Warning is a non-fatal finding surfaced during parsing (currently only the
// deprecated start/dependencies alias union).
type Warning struct {
	Subject string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Subject, w.Message)
}

// ParseConfig reads and decodes the YAML document at path into a
// Configuration, resolving shell commands and the start/dependencies alias.
// It does not run cross-reference validation (see ValidateConfig) or
// environment interpolation (see InterpolateEnv), which happen later in the
// pipeline.
func ParseConfig(path string) (*Configuration, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, stagehanderrors.NewConfigurationError("config_file", "cannot read "+path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, stagehanderrors.NewParseError(path, extractLine(err), err)
	}

	var warnings []Warning
	cfg := &Configuration{
		ProjectName: raw.ProjectName,
		Containers:  make(map[string]ContainerDefinition, len(raw.Containers)),
		Tasks:       make(map[string]TaskDefinition, len(raw.Tasks)),
	}

	for name, rc := range raw.Containers {
		def, warning, err := convertContainer(name, rc)
		if err != nil {
			return nil, nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
		cfg.Containers[name] = def
	}

	for name, rt := range raw.Tasks {
		task, warning, err := convertTask(name, rt)
		if err != nil {
			return nil, nil, err
		}
		if warning != nil {
			warnings = append(warnings, *warning)
		}
		cfg.Tasks[name] = task
	}

	return cfg, warnings, nil
}

func convertContainer(name string, rc rawContainer) (ContainerDefinition, *Warning, error) {
	image, err := convertImageSource(name, rc.Build, rc.Image)
	if err != nil {
		return ContainerDefinition{}, nil, err
	}

	command, err := ParseCommand(rc.Command)
	if err != nil {
		return ContainerDefinition{}, nil, err
	}

	deps, warning := unionDependsOn("container:"+name, rc.Dependencies, rc.Start)

	return ContainerDefinition{
		Name:      name,
		Image:     image,
		Command:   command,
		Env:       convertEnv(rc.Environment),
		WorkDir:   rc.WorkingDirectory,
		Volumes:   convertVolumes(rc.Volumes),
		Ports:     convertPorts(rc.Ports),
		DependsOn: deps,
	}, warning, nil
}

func convertTask(name string, rt rawTask) (TaskDefinition, *Warning, error) {
	command, err := ParseCommand(rt.Run.Command)
	if err != nil {
		return TaskDefinition{}, nil, err
	}

	deps, warning := unionDependsOn("task:"+name, rt.Dependencies, rt.Start)

	return TaskDefinition{
		Name:        name,
		Description: rt.Description,
		Run: RunConfig{
			Container: rt.Run.Container,
			Command:   command,
			Env:       convertEnv(rt.Run.Environment),
			Ports:     convertPorts(rt.Run.Ports),
		},
		DependsOn:     deps,
		Prerequisites: rt.Prerequisites,
	}, warning, nil
}

func convertImageSource(container string, build, image *string) (ImageSource, error) {
	switch {
	case build != nil && image != nil:
		return ImageSource{}, stagehanderrors.NewConfigurationError(
			"containers."+container, "container specifies both build and image", nil)
	case build != nil:
		return ImageSource{Kind: ImageSourceBuild, BuildPath: *build}, nil
	case image != nil:
		return ImageSource{Kind: ImageSourcePull, PullRef: *image}, nil
	default:
		return ImageSource{}, stagehanderrors.NewConfigurationError(
			"containers."+container, "container must specify build or image", nil)
	}
}

func convertEnv(raw map[string]string) []EnvBinding {
	if len(raw) == 0 {
		return nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	bindings := make([]EnvBinding, 0, len(names))
	for _, name := range names {
		bindings = append(bindings, NewEnvBinding(name, raw[name]))
	}
	return bindings
}

func convertVolumes(raw []rawVolume) []VolumeMount {
	if len(raw) == 0 {
		return nil
	}
	volumes := make([]VolumeMount, 0, len(raw))
	for _, v := range raw {
		mode := v.Options
		if mode == "" {
			mode = "rw"
		}
		volumes = append(volumes, VolumeMount{HostPath: v.Local, ContainerPath: v.Container, Mode: mode})
	}
	return volumes
}

func convertPorts(raw []rawPort) []PortMapping {
	if len(raw) == 0 {
		return nil
	}
	ports := make([]PortMapping, 0, len(raw))
	for _, p := range raw {
		ports = append(ports, PortMapping{Host: p.Local, Container: p.Container})
	}
	return ports
}

// unionDependsOn implements the decided resolution of the deprecated start
// alias: take the union of dependencies and start, deduplicated, and report
// a warning naming the subject when both are present.
func unionDependsOn(subject string, dependencies, start []string) ([]string, *Warning) {
	if len(start) == 0 {
		return dependencies, nil
	}

	seen := make(map[string]struct{}, len(dependencies)+len(start))
	union := make([]string, 0, len(dependencies)+len(start))
	for _, name := range dependencies {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		union = append(union, name)
	}
	for _, name := range start {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		union = append(union, name)
	}

	var warning *Warning
	if len(dependencies) > 0 {
		warning = &Warning{
			Subject: subject,
			Message: "both 'dependencies' and deprecated 'start' are set; using their union",
		}
	}
	return union, warning
}

// extractLine pulls the "line N" fragment yaml.v3 embeds in its error
// messages, returning 0 when absent.
func extractLine(err error) int {
	match := yamlLineRe.FindStringSubmatch(err.Error())
	if match == nil {
		return 0
	}
	var line int
	_, scanErr := fmt.Sscanf(match[1], "%d", &line)
	if scanErr != nil {
		return 0
	}
	return line
}
