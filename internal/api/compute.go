package api

// LocalNode is a host registered with the engine.
type LocalNode struct {
	ID        string `json:"id"`
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	Status    string `json:"status"`
}

// NodeStats reports resource usage of the local node.
type NodeStats struct {
	CPUUsagePercent float32 `json:"cpu_usage_percent"`
	MemoryUsedMB    uint64  `json:"memory_used_mb"`
	MemoryTotalMB   uint64  `json:"memory_total_mb"`
	StorageUsedGB   uint64  `json:"storage_used_gb"`
	StorageTotalGB  uint64  `json:"storage_total_gb"`
}

// WorkloadStatus describes a container or VM.
type WorkloadStatus struct {
	ID        string  `json:"id"`
	State     string  `json:"state"`
	IPAddress *string `json:"ip_address"`
}

// VolumeStatus describes a block volume.
type VolumeStatus struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	State string `json:"state"`
}

// NetworkStatus describes a virtual network.
type NetworkStatus struct {
	ID    string `json:"id"`
	CIDR  string `json:"cidr"`
	State string `json:"state"`
}

// CreateWorkloadRequest is the body of POST /v1/workloads.
type CreateWorkloadRequest struct {
	ID    string `json:"id" validate:"required"`
	Image string `json:"image" validate:"required"`
}

// DeleteWorkloadRequest is the body of DELETE /v1/workloads.
type DeleteWorkloadRequest struct {
	ID string `json:"id" validate:"required"`
}

// CreateVolumeRequest is the body of POST /v1/volumes.
type CreateVolumeRequest struct {
	ID     string `json:"id" validate:"required"`
	SizeGB int    `json:"size_gb,omitempty" validate:"gte=0"`
}

// CreateNetworkRequest is the body of POST /v1/networks.
type CreateNetworkRequest struct {
	ID   string `json:"id" validate:"required"`
	CIDR string `json:"cidr,omitempty" validate:"omitempty,cidr"`
}

// NodesResponse is returned by GET /v1/nodes.
type NodesResponse struct {
	Nodes []LocalNode `json:"nodes"`
}

// WorkloadsResponse is returned by GET /v1/workloads.
type WorkloadsResponse struct {
	Workloads []WorkloadStatus `json:"workloads"`
}

// VolumesResponse is returned by GET /v1/volumes.
type VolumesResponse struct {
	Volumes []VolumeStatus `json:"volumes"`
}

// NetworksResponse is returned by GET /v1/networks.
type NetworksResponse struct {
	Networks []NetworkStatus `json:"networks"`
}
