package daemon

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/distribution/reference"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/stagehand-cli/stagehand/internal/model"
)

// DockerClient is the daemon.Daemon implementation backed by the real Docker
// Engine API client, following the pull → create → start → logs call
// sequence, generalized to the full daemon.Daemon operation set.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient constructs a DockerClient from the environment (DOCKER_HOST,
// DOCKER_CERT_PATH, etc. — same discovery client.NewClientWithOpts(client.FromEnv)
// performs).
func NewDockerClient() (*DockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerClient{cli: cli}, nil
}

// Build submits a build context directory to the Engine API's build
// endpoint, decoding the JSON progress stream into onProgress callbacks
// before returning the built image ID.
func (d *DockerClient) Build(ctx context.Context, spec BuildSpec, onProgress func(line string)) (string, error) {
	tarball, err := tarDirectory(spec.ContextDir)
	if err != nil {
		return "", err
	}

	tag := fmt.Sprintf("%s-%s:latest", spec.ProjectName, spec.Container)
	resp, err := d.cli.ImageBuild(ctx, tarball, dockerBuildOptions(tag))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var imageID string
	decoder := json.NewDecoder(resp.Body)
	for {
		var msg struct {
			Stream string `json:"stream"`
			Aux    struct {
				ID string `json:"ID"`
			} `json:"aux"`
			Error string `json:"error"`
		}
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if msg.Error != "" {
			return "", fmt.Errorf("%s", msg.Error)
		}
		if msg.Aux.ID != "" {
			imageID = msg.Aux.ID
		}
		if msg.Stream != "" && onProgress != nil {
			onProgress(msg.Stream)
		}
	}
	if imageID == "" {
		imageID = tag
	}
	return imageID, nil
}

// Pull streams the Engine API's image pull response to completion, the same
// way the pack's cube Docker.ImagePull copies the streaming reader.
func (d *DockerClient) Pull(ctx context.Context, ref string) (string, error) {
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", ref, err)
	}

	reader, err := d.cli.ImagePull(ctx, ref, dockerimage.PullOptions{})
	if err != nil {
		return "", err
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}

	inspect, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		return ref, nil
	}
	return inspect.ID, nil
}

// CreateBridgeNetwork creates an isolated bridge network for the task.
func (d *DockerClient) CreateBridgeNetwork(ctx context.Context) (string, error) {
	resp, err := d.cli.NetworkCreate(ctx, fmt.Sprintf("stagehand-%d", os.Getpid()), network.CreateOptions{
		Driver: "bridge",
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteNetwork removes a previously created bridge network.
func (d *DockerClient) DeleteNetwork(ctx context.Context, networkID string) error {
	return d.cli.NetworkRemove(ctx, networkID)
}

// Create builds the container and host config (ports, volumes, env, working
// directory, command) and calls ContainerCreate, attaching it to the task
// network.
func (d *DockerClient) Create(ctx context.Context, spec CreateSpec) (string, error) {
	containerCfg := &container.Config{
		Image:      spec.Image,
		Cmd:        spec.Command,
		Env:        renderEnv(spec.Env),
		WorkingDir: spec.WorkDir,
		Tty:        false,
	}

	exposedPorts, portBindings, err := renderPorts(spec.Ports)
	if err != nil {
		return "", err
	}
	containerCfg.ExposedPorts = exposedPorts

	hostCfg := &container.HostConfig{
		PortBindings: portBindings,
		Binds:        renderVolumes(spec.Volumes),
		NetworkMode:  container.NetworkMode(spec.NetworkID),
	}

	name := fmt.Sprintf("stagehand-%s-%d", spec.Container, os.Getpid())
	resp, err := d.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Start starts a previously created dependency container.
func (d *DockerClient) Start(ctx context.Context, handle string) error {
	return d.cli.ContainerStart(ctx, handle, container.StartOptions{})
}

// Run starts the root container and blocks, copying its logs to stdout/
// stderr via stdcopy.StdCopy (the same demultiplexing the pack's cube
// teacher performs on ContainerLogs), until it exits.
func (d *DockerClient) Run(ctx context.Context, handle string, stdout, stderr io.Writer) (RunResult, error) {
	if err := d.cli.ContainerStart(ctx, handle, container.StartOptions{}); err != nil {
		return RunResult{}, err
	}

	logs, err := d.cli.ContainerLogs(ctx, handle, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		return RunResult{}, err
	}
	defer logs.Close()

	go func() {
		_, _ = stdcopy.StdCopy(stdout, stderr, logs)
	}()

	waitCh, errCh := d.cli.ContainerWait(ctx, handle, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return RunResult{}, err
	case status := <-waitCh:
		return RunResult{ExitCode: int(status.StatusCode)}, nil
	}
}

// WaitForHealthStatus inspects the container's health state, mapping
// container.Inspect().State.Health into the HealthStatus taxonomy.
// Containers with no configured health check report NoHealthCheck
// immediately; while the health check is still "starting" it re-inspects
// every 500ms until the container exits or reports healthy or unhealthy.
func (d *DockerClient) WaitForHealthStatus(ctx context.Context, handle string) (HealthStatus, error) {
	for {
		inspect, err := d.cli.ContainerInspect(ctx, handle)
		if err != nil {
			return NoHealthCheck, err
		}

		if inspect.State != nil && inspect.State.Status == "exited" {
			return Exited, nil
		}
		if inspect.State == nil || inspect.State.Health == nil {
			return NoHealthCheck, nil
		}

		switch inspect.State.Health.Status {
		case "healthy":
			return BecameHealthy, nil
		case "unhealthy":
			return BecameUnhealthy, nil
		case "starting":
		default:
			return NoHealthCheck, nil
		}

		select {
		case <-ctx.Done():
			return NoHealthCheck, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Stop stops a running container.
func (d *DockerClient) Stop(ctx context.Context, handle string) error {
	return d.cli.ContainerStop(ctx, handle, container.StopOptions{})
}

// Remove removes a stopped container.
func (d *DockerClient) Remove(ctx context.Context, handle string) error {
	return d.cli.ContainerRemove(ctx, handle, container.RemoveOptions{})
}

// ForciblyRemove removes a container regardless of its running state,
// collapsing a not-found error into success (checked via
// client.IsErrNotFound) so cleanup is idempotent.
func (d *DockerClient) ForciblyRemove(ctx context.Context, handle string) error {
	err := d.cli.ContainerRemove(ctx, handle, container.RemoveOptions{Force: true})
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return err
}

func renderEnv(env []model.EnvVar) []string {
	out := make([]string, 0, len(env))
	for _, e := range env {
		out = append(out, e.Name+"="+e.Value)
	}
	return out
}

func renderVolumes(volumes []model.VolumeMount) []string {
	out := make([]string, 0, len(volumes))
	for _, v := range volumes {
		mode := v.Mode
		if mode == "" {
			mode = "rw"
		}
		out = append(out, fmt.Sprintf("%s:%s:%s", v.HostPath, v.ContainerPath, mode))
	}
	return out
}

func renderPorts(ports []model.PortMapping) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range ports {
		containerPort, err := nat.NewPort("tcp", strconv.Itoa(p.Container))
		if err != nil {
			return nil, nil, err
		}
		exposed[containerPort] = struct{}{}
		bindings[containerPort] = []nat.PortBinding{{HostPort: strconv.Itoa(p.Host)}}
	}
	return exposed, bindings, nil
}

func dockerBuildOptions(tag string) build.ImageBuildOptions {
	return build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: "Dockerfile",
		Remove:     true,
	}
}

// tarDirectory packages a build context directory into a tar stream, the
// format the Engine API's build endpoint requires.
func tarDirectory(dir string) (io.Reader, error) {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	defer tw.Close()

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = rel

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}
