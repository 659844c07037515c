package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

const bytesPerMB = 1024 * 1024

// DockerClient defines the Docker Engine operations used by DockerDriver.
// This interface makes the code easier to test by allowing mock implementations.
type DockerClient interface {
	Ping(ctx context.Context) error
	ContainerCreate(ctx context.Context, name string, cfg *container.Config, host *container.HostConfig) (string, error)
	ContainerStart(ctx context.Context, id string) error
	ContainerRemove(ctx context.Context, id string) error
	ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error)
	ContainerList(ctx context.Context) ([]types.Container, error)
	Info(ctx context.Context) (system.Info, error)
	Close() error
}

// DockerClientAdapter wraps the Docker SDK client to implement DockerClient.
type DockerClientAdapter struct {
	client *client.Client
}

// NewDockerClientAdapter connects to the Docker Engine. An empty host uses
// DOCKER_HOST and the platform default socket.
func NewDockerClientAdapter(host string) (*DockerClientAdapter, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerClientAdapter{client: c}, nil
}

// Ping wraps the Docker SDK Ping operation.
func (a *DockerClientAdapter) Ping(ctx context.Context) error {
	_, err := a.client.Ping(ctx)
	return err
}

// ContainerCreate wraps the Docker SDK ContainerCreate operation.
func (a *DockerClientAdapter) ContainerCreate(
	ctx context.Context, name string, cfg *container.Config, host *container.HostConfig,
) (string, error) {
	resp, err := a.client.ContainerCreate(ctx, cfg, host, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ContainerStart wraps the Docker SDK ContainerStart operation.
func (a *DockerClientAdapter) ContainerStart(ctx context.Context, id string) error {
	return a.client.ContainerStart(ctx, id, container.StartOptions{})
}

// ContainerRemove force-removes a container.
func (a *DockerClientAdapter) ContainerRemove(ctx context.Context, id string) error {
	return a.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}

// ContainerInspect wraps the Docker SDK ContainerInspect operation.
func (a *DockerClientAdapter) ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	return a.client.ContainerInspect(ctx, id)
}

// ContainerList lists all containers, including stopped ones.
func (a *DockerClientAdapter) ContainerList(ctx context.Context) ([]types.Container, error) {
	return a.client.ContainerList(ctx, container.ListOptions{All: true})
}

// Info wraps the Docker SDK Info operation.
func (a *DockerClientAdapter) Info(ctx context.Context) (system.Info, error) {
	return a.client.Info(ctx)
}

// Close releases the underlying HTTP transport.
func (a *DockerClientAdapter) Close() error {
	return a.client.Close()
}

// DockerDriver runs workloads as Docker containers.
type DockerDriver struct {
	client DockerClient
}

// NewDockerDriver creates a driver on top of an engine client.
func NewDockerDriver(c DockerClient) *DockerDriver {
	return &DockerDriver{client: c}
}

// Name implements ComputeDriver.
func (d *DockerDriver) Name() string { return "docker" }

// Ping reports whether the Docker Engine is reachable.
func (d *DockerDriver) Ping(ctx context.Context) error {
	return d.client.Ping(ctx)
}

// Close implements Closer.
func (d *DockerDriver) Close() error {
	return d.client.Close()
}

// CreateWorkload implements ComputeDriver.
func (d *DockerDriver) CreateWorkload(
	ctx context.Context, id, image string, cpu float64, memMB int,
) (*api.WorkloadStatus, error) {
	host := &container.HostConfig{
		Resources: container.Resources{
			NanoCPUs: int64(cpu * 1e9),
			Memory:   int64(memMB) * bytesPerMB,
		},
	}

	if _, err := d.client.ContainerCreate(ctx, id, &container.Config{Image: image}, host); err != nil {
		if errdefs.IsConflict(err) {
			return nil, apperrors.ErrAlreadyExists(fmt.Sprintf("workload %s already exists", id), err)
		}
		return nil, apperrors.ErrDriver("Docker create error", err)
	}

	if err := d.client.ContainerStart(ctx, id); err != nil {
		return nil, apperrors.ErrDriver("Docker start error", err)
	}

	return &api.WorkloadStatus{ID: id, State: constants.StateRunning}, nil
}

// DeleteWorkload implements ComputeDriver.
func (d *DockerDriver) DeleteWorkload(ctx context.Context, id string) error {
	if err := d.client.ContainerRemove(ctx, id); err != nil {
		if errdefs.IsNotFound(err) {
			return apperrors.ErrNotFound(fmt.Sprintf("workload %s not found", id), err)
		}
		return apperrors.ErrDriver("Docker remove error", err)
	}
	return nil
}

// GetWorkloadStatus implements ComputeDriver.
func (d *DockerDriver) GetWorkloadStatus(ctx context.Context, id string) (*api.WorkloadStatus, error) {
	inspect, err := d.client.ContainerInspect(ctx, id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, apperrors.ErrNotFound(fmt.Sprintf("workload %s not found", id), err)
		}
		return nil, apperrors.ErrDriver("Docker inspect error", err)
	}

	status := &api.WorkloadStatus{ID: id, State: constants.StateUnknown}
	if inspect.ContainerJSONBase != nil && inspect.State != nil && inspect.State.Status != "" {
		status.State = inspect.State.Status
	}
	if inspect.NetworkSettings != nil && inspect.NetworkSettings.IPAddress != "" {
		status.IPAddress = strPtr(inspect.NetworkSettings.IPAddress)
	}
	return status, nil
}

// ListWorkloads implements ComputeDriver.
func (d *DockerDriver) ListWorkloads(ctx context.Context) ([]api.WorkloadStatus, error) {
	containers, err := d.client.ContainerList(ctx)
	if err != nil {
		return nil, apperrors.ErrDriver("Docker list error", err)
	}

	list := make([]api.WorkloadStatus, 0, len(containers))
	for _, c := range containers {
		id := c.ID
		if len(c.Names) > 0 {
			id = strings.TrimPrefix(c.Names[0], "/")
		}
		state := c.State
		if state == "" {
			state = constants.StateUnknown
		}
		list = append(list, api.WorkloadStatus{ID: id, State: state})
	}
	return list, nil
}

// GetStats implements ComputeDriver using the engine's host information.
func (d *DockerDriver) GetStats(ctx context.Context) (*api.NodeStats, error) {
	info, err := d.client.Info(ctx)
	if err != nil {
		return nil, apperrors.ErrDriver("Docker info error", err)
	}

	return &api.NodeStats{
		MemoryTotalMB: uint64(max(info.MemTotal, 0)) / bytesPerMB,
	}, nil
}
