package driver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

const (
	virshBinary       = "virsh"
	virtInstallBinary = "virt-install"
	libvirtImageDir   = "/var/lib/libvirt/images"
)

// KvmDriver runs workloads as KVM virtual machines managed through
// libvirt's virsh and virt-install tools.
type KvmDriver struct {
	runner CommandRunner
}

// NewKvmDriver creates a KVM driver. A nil runner executes the real tools.
func NewKvmDriver(runner CommandRunner) *KvmDriver {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &KvmDriver{runner: runner}
}

// Name implements ComputeDriver.
func (d *KvmDriver) Name() string { return "kvm" }

func (d *KvmDriver) virsh(ctx context.Context, args ...string) (string, error) {
	out, err := d.runner.Run(ctx, virshBinary, args...)
	if err != nil {
		return "", apperrors.ErrDriver("KVM command failed", err)
	}
	return out, nil
}

// CreateWorkload implements ComputeDriver. The image names a disk in the
// libvirt image directory imported as the VM's root disk.
func (d *KvmDriver) CreateWorkload(
	ctx context.Context, id, _ string, cpu float64, memMB int,
) (*api.WorkloadStatus, error) {
	vcpus := max(int(cpu), 1)
	_, err := d.runner.Run(ctx, virtInstallBinary,
		"--name", id,
		"--memory", strconv.Itoa(memMB),
		"--vcpus", strconv.Itoa(vcpus),
		"--disk", fmt.Sprintf("path=%s/%s.qcow2,size=%d", libvirtImageDir, id, constants.DefaultVolumeSizeGB),
		"--import",
		"--noautoconsole",
		"--graphics", "none",
	)
	if err != nil {
		return nil, apperrors.ErrDriver("KVM create failed", err)
	}

	return &api.WorkloadStatus{ID: id, State: constants.StateRunning}, nil
}

// DeleteWorkload implements ComputeDriver.
func (d *KvmDriver) DeleteWorkload(ctx context.Context, id string) error {
	// destroy fails when the domain is already shut off
	_, _ = d.virsh(ctx, "destroy", id)

	_, err := d.virsh(ctx, "undefine", id, "--remove-all-storage")
	return err
}

// GetWorkloadStatus implements ComputeDriver.
func (d *KvmDriver) GetWorkloadStatus(ctx context.Context, id string) (*api.WorkloadStatus, error) {
	state, err := d.virsh(ctx, "domstate", id)
	if err != nil {
		return nil, err
	}

	status := &api.WorkloadStatus{ID: id, State: normalizeDomainState(state)}
	if out, ipErr := d.virsh(ctx, "domifaddr", id); ipErr == nil {
		if ip := parseDomIfAddr(out); ip != "" {
			status.IPAddress = strPtr(ip)
		}
	}
	return status, nil
}

// ListWorkloads implements ComputeDriver.
func (d *KvmDriver) ListWorkloads(ctx context.Context) ([]api.WorkloadStatus, error) {
	out, err := d.virsh(ctx, "list", "--all", "--name")
	if err != nil {
		return nil, err
	}

	var list []api.WorkloadStatus
	for _, name := range nonEmptyLines(out) {
		state := constants.StateUnknown
		if s, stateErr := d.virsh(ctx, "domstate", name); stateErr == nil {
			state = normalizeDomainState(s)
		}
		list = append(list, api.WorkloadStatus{ID: name, State: state})
	}
	return list, nil
}

// GetStats implements ComputeDriver from `virsh nodememstats`.
func (d *KvmDriver) GetStats(ctx context.Context) (*api.NodeStats, error) {
	out, err := d.virsh(ctx, "nodememstats")
	if err != nil {
		return nil, err
	}

	var totalKB, freeKB uint64
	for _, line := range nonEmptyLines(out) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		v, convErr := strconv.ParseUint(fields[len(fields)-2], 10, 64)
		if convErr != nil {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "total":
			totalKB = v
		case "free":
			freeKB = v
		}
	}

	return &api.NodeStats{
		MemoryTotalMB: totalKB / 1024,
		MemoryUsedMB:  (totalKB - min(freeKB, totalKB)) / 1024,
	}, nil
}

func normalizeDomainState(state string) string {
	switch strings.TrimSpace(state) {
	case "running":
		return constants.StateRunning
	case "shut off":
		return constants.StateStopped
	default:
		return constants.StateUnknown
	}
}

// parseDomIfAddr extracts the first address from `virsh domifaddr` output:
//
//	Name       MAC address          Protocol     Address
//	-------------------------------------------------------------
//	vnet0      52:54:00:aa:bb:cc    ipv4         192.168.122.45/24
func parseDomIfAddr(out string) string {
	lines := strings.Split(out, "\n")
	if len(lines) < 3 {
		return ""
	}
	fields := strings.Fields(lines[2])
	if len(fields) < 4 {
		return ""
	}
	ip, _, _ := strings.Cut(fields[3], "/")
	return ip
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
