package constants

// AccountID is the fixed account identifier embedded in every ARN.
const AccountID = "000000"

// ARNPartition is the partition segment of ZeroCloud ARNs.
const ARNPartition = "zero"

// DefaultNetworkCIDR is used when a network is created without --cidr.
const DefaultNetworkCIDR = "10.0.0.0/24"

// DefaultVolumeSizeGB is used when a volume is created without a size.
const DefaultVolumeSizeGB = 10

// BucketVolumeSizeGB is the size of the volume backing a store bucket.
const BucketVolumeSizeGB = 1

// DefaultWorkloadCPU and DefaultWorkloadMemoryMB size every workload.
const (
	DefaultWorkloadCPU      = 1.0
	DefaultWorkloadMemoryMB = 512
)

// DefaultTablePK is the partition key name used when none is given.
const DefaultTablePK = "id"

// DefaultLoadBalancerType is the load balancer type used when none is given.
const DefaultLoadBalancerType = "application"

// DefaultTargetPort is the port used for target groups and targets.
const DefaultTargetPort = 80

// DefaultProtocol is the protocol recorded for target groups and listeners.
const DefaultProtocol = "HTTP"

// HealthCheckPath is the health check path recorded for new target groups.
const HealthCheckPath = "/health"

// LoadBalancerDNSSuffix is appended to a load balancer name to form its DNS name.
const LoadBalancerDNSSuffix = ".lb.zero.local"

// MockFunctionResult is returned when no function runtime is installed.
const MockFunctionResult = "Hello from ZeroFunc (Mock)"

// EKSVersion is the Kubernetes version reported for mock clusters.
const EKSVersion = "1.27"

// EKSEndpoint is the API endpoint reported for mock clusters.
const EKSEndpoint = "https://localhost:6443"

// Resource states reported by drivers.
const (
	StateRunning   = "Running"
	StateStopped   = "Stopped"
	StateUnknown   = "Unknown"
	StateAvailable = "Available"
	StateReady     = "Ready"
)
