// Package driver contains the data-plane drivers backing zero: compute
// (containers and virtual machines), block storage and virtual networks.
package driver

import (
	"context"

	"github.com/cloudemu/zero/internal/api"
)

// ComputeDriver manages workloads on a container runtime or hypervisor.
type ComputeDriver interface {
	// Name identifies the driver in logs and health output.
	Name() string
	CreateWorkload(ctx context.Context, id, image string, cpu float64, memMB int) (*api.WorkloadStatus, error)
	DeleteWorkload(ctx context.Context, id string) error
	GetWorkloadStatus(ctx context.Context, id string) (*api.WorkloadStatus, error)
	ListWorkloads(ctx context.Context) ([]api.WorkloadStatus, error)
	GetStats(ctx context.Context) (*api.NodeStats, error)
}

// StorageDriver manages block volumes.
type StorageDriver interface {
	Name() string
	CreateVolume(ctx context.Context, id string, sizeGB int) (*api.VolumeStatus, error)
	DeleteVolume(ctx context.Context, id string) error
	WriteBlock(ctx context.Context, volumeID string, offset int64, data []byte) error
	ReadBlock(ctx context.Context, volumeID string, offset int64, length int) ([]byte, error)
	ListVolumes(ctx context.Context) ([]api.VolumeStatus, error)
}

// NetworkDriver manages virtual networks.
type NetworkDriver interface {
	Name() string
	CreateNetwork(ctx context.Context, id, cidr string) (*api.NetworkStatus, error)
	DeleteNetwork(ctx context.Context, id string) error
	// ConnectWorkload attaches a workload to a network and returns the
	// address (or addressing mode) assigned to it.
	ConnectWorkload(ctx context.Context, workloadID, networkID string) (string, error)
	ListNetworks(ctx context.Context) ([]api.NetworkStatus, error)
}

// Closer is implemented by drivers holding resources such as API clients.
type Closer interface {
	Close() error
}

func strPtr(s string) *string {
	return &s
}
