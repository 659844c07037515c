package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDockerClient struct {
	createFunc  func(name string, cfg *container.Config, host *container.HostConfig) (string, error)
	startErr    error
	removeErr   error
	inspectFunc func(id string) (types.ContainerJSON, error)
	containers  []types.Container
	info        system.Info
	closed      bool
}

func (m *mockDockerClient) Ping(context.Context) error { return nil }

func (m *mockDockerClient) ContainerCreate(
	_ context.Context, name string, cfg *container.Config, host *container.HostConfig,
) (string, error) {
	if m.createFunc != nil {
		return m.createFunc(name, cfg, host)
	}
	return "c0ffee", nil
}

func (m *mockDockerClient) ContainerStart(context.Context, string) error  { return m.startErr }
func (m *mockDockerClient) ContainerRemove(context.Context, string) error { return m.removeErr }

func (m *mockDockerClient) ContainerInspect(_ context.Context, id string) (types.ContainerJSON, error) {
	return m.inspectFunc(id)
}

func (m *mockDockerClient) ContainerList(context.Context) ([]types.Container, error) {
	return m.containers, nil
}

func (m *mockDockerClient) Info(context.Context) (system.Info, error) { return m.info, nil }

func (m *mockDockerClient) Close() error {
	m.closed = true
	return nil
}

func TestDockerDriver_CreateWorkload(t *testing.T) {
	var gotName string
	var gotCfg *container.Config
	var gotHost *container.HostConfig

	mock := &mockDockerClient{
		createFunc: func(name string, cfg *container.Config, host *container.HostConfig) (string, error) {
			gotName, gotCfg, gotHost = name, cfg, host
			return "abc", nil
		},
	}
	d := NewDockerDriver(mock)

	status, err := d.CreateWorkload(context.Background(), "web", "nginx", 1.0, 512)
	require.NoError(t, err)

	assert.Equal(t, "web", status.ID)
	assert.Equal(t, constants.StateRunning, status.State)
	assert.Nil(t, status.IPAddress)
	assert.Equal(t, "web", gotName)
	assert.Equal(t, "nginx", gotCfg.Image)
	assert.Equal(t, int64(1e9), gotHost.NanoCPUs)
	assert.Equal(t, int64(512*1024*1024), gotHost.Memory)
}

func TestDockerDriver_CreateWorkloadErrors(t *testing.T) {
	t.Run("name conflict", func(t *testing.T) {
		mock := &mockDockerClient{createFunc: func(string, *container.Config, *container.HostConfig) (string, error) {
			return "", errdefs.Conflict(errors.New("container name already in use"))
		}}
		_, err := NewDockerDriver(mock).CreateWorkload(context.Background(), "web", "nginx", 1, 512)
		assert.Equal(t, apperrors.ErrCodeAlreadyExists, apperrors.GetErrorCode(err))
	})

	t.Run("start failure", func(t *testing.T) {
		mock := &mockDockerClient{startErr: errors.New("port is already allocated")}
		_, err := NewDockerDriver(mock).CreateWorkload(context.Background(), "web", "nginx", 1, 512)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDriverError, apperrors.GetErrorCode(err))
		assert.Contains(t, err.Error(), "Docker start error")
	})
}

func TestDockerDriver_DeleteWorkload(t *testing.T) {
	require.NoError(t, NewDockerDriver(&mockDockerClient{}).DeleteWorkload(context.Background(), "web"))

	mock := &mockDockerClient{removeErr: errdefs.NotFound(errors.New("no such container"))}
	err := NewDockerDriver(mock).DeleteWorkload(context.Background(), "web")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetErrorCode(err))
}

func TestDockerDriver_GetWorkloadStatus(t *testing.T) {
	mock := &mockDockerClient{inspectFunc: func(string) (types.ContainerJSON, error) {
		return types.ContainerJSON{
			ContainerJSONBase: &types.ContainerJSONBase{State: &types.ContainerState{Status: "running"}},
			NetworkSettings: &types.NetworkSettings{
				DefaultNetworkSettings: types.DefaultNetworkSettings{IPAddress: "172.17.0.2"},
				Networks:               map[string]*network.EndpointSettings{},
			},
		}, nil
	}}

	status, err := NewDockerDriver(mock).GetWorkloadStatus(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, "running", status.State)
	require.NotNil(t, status.IPAddress)
	assert.Equal(t, "172.17.0.2", *status.IPAddress)
}

func TestDockerDriver_GetWorkloadStatusWithoutState(t *testing.T) {
	mock := &mockDockerClient{inspectFunc: func(string) (types.ContainerJSON, error) {
		return types.ContainerJSON{}, nil
	}}

	status, err := NewDockerDriver(mock).GetWorkloadStatus(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, constants.StateUnknown, status.State)
	assert.Nil(t, status.IPAddress)
}

func TestDockerDriver_ListAndStats(t *testing.T) {
	mock := &mockDockerClient{
		containers: []types.Container{
			{ID: "abc", Names: []string{"/web"}, State: "running"},
			{ID: "def", State: ""},
		},
		info: system.Info{MemTotal: 8 * 1024 * 1024 * 1024},
	}
	d := NewDockerDriver(mock)

	list, err := d.ListWorkloads(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "web", list[0].ID)
	assert.Equal(t, "running", list[0].State)
	assert.Equal(t, "def", list[1].ID)
	assert.Equal(t, constants.StateUnknown, list[1].State)

	stats, err := d.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(8192), stats.MemoryTotalMB)

	require.NoError(t, d.Close())
	assert.True(t, mock.closed)
}
