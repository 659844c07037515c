package driver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

const (
	mockWorkloadIP = "127.0.0.1"
	mockNetworkIP  = "10.0.0.50"
)

// MockComputeDriver simulates workloads in memory.
// It backs CI runs and hosts without a container runtime or hypervisor.
type MockComputeDriver struct {
	mu        sync.RWMutex
	workloads map[string]api.WorkloadStatus
}

// NewMockComputeDriver creates an empty mock compute driver.
func NewMockComputeDriver() *MockComputeDriver {
	return &MockComputeDriver{workloads: make(map[string]api.WorkloadStatus)}
}

// Name implements ComputeDriver.
func (d *MockComputeDriver) Name() string { return "mock" }

// CreateWorkload implements ComputeDriver.
func (d *MockComputeDriver) CreateWorkload(
	_ context.Context, id, _ string, _ float64, _ int,
) (*api.WorkloadStatus, error) {
	status := api.WorkloadStatus{
		ID:        id,
		State:     constants.StateRunning,
		IPAddress: strPtr(mockWorkloadIP),
	}

	d.mu.Lock()
	d.workloads[id] = status
	d.mu.Unlock()

	return &status, nil
}

// DeleteWorkload implements ComputeDriver. Deleting an unknown workload is a no-op.
func (d *MockComputeDriver) DeleteWorkload(_ context.Context, id string) error {
	d.mu.Lock()
	delete(d.workloads, id)
	d.mu.Unlock()
	return nil
}

// GetWorkloadStatus implements ComputeDriver.
func (d *MockComputeDriver) GetWorkloadStatus(_ context.Context, id string) (*api.WorkloadStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	status, ok := d.workloads[id]
	if !ok {
		return nil, apperrors.ErrNotFound(fmt.Sprintf("workload %s not found", id), nil)
	}
	return &status, nil
}

// ListWorkloads implements ComputeDriver.
func (d *MockComputeDriver) ListWorkloads(_ context.Context) ([]api.WorkloadStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]api.WorkloadStatus, 0, len(d.workloads))
	for _, w := range d.workloads {
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// GetStats implements ComputeDriver.
func (d *MockComputeDriver) GetStats(_ context.Context) (*api.NodeStats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return &api.NodeStats{
		MemoryUsedMB:  uint64(len(d.workloads)) * constants.DefaultWorkloadMemoryMB,
	}, nil
}

// MockNetworkDriver simulates networks in memory.
type MockNetworkDriver struct {
	mu       sync.RWMutex
	networks map[string]api.NetworkStatus
}

// NewMockNetworkDriver creates an empty mock network driver.
func NewMockNetworkDriver() *MockNetworkDriver {
	return &MockNetworkDriver{networks: make(map[string]api.NetworkStatus)}
}

// Name implements NetworkDriver.
func (d *MockNetworkDriver) Name() string { return "mock" }

// CreateNetwork implements NetworkDriver.
func (d *MockNetworkDriver) CreateNetwork(_ context.Context, id, cidr string) (*api.NetworkStatus, error) {
	status := api.NetworkStatus{ID: id, CIDR: cidr, State: constants.StateAvailable}

	d.mu.Lock()
	d.networks[id] = status
	d.mu.Unlock()

	return &status, nil
}

// DeleteNetwork implements NetworkDriver.
func (d *MockNetworkDriver) DeleteNetwork(_ context.Context, id string) error {
	d.mu.Lock()
	delete(d.networks, id)
	d.mu.Unlock()
	return nil
}

// ConnectWorkload implements NetworkDriver.
func (d *MockNetworkDriver) ConnectWorkload(_ context.Context, _, _ string) (string, error) {
	return mockNetworkIP, nil
}

// ListNetworks implements NetworkDriver.
func (d *MockNetworkDriver) ListNetworks(_ context.Context) ([]api.NetworkStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list := make([]api.NetworkStatus, 0, len(d.networks))
	for _, n := range d.networks {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
