package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

const powershellBinary = "powershell"

// psQuote quotes s as a single-quoted PowerShell string literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func runPowerShell(ctx context.Context, runner CommandRunner, what, script string) (string, error) {
	out, err := runner.Run(ctx, powershellBinary, "-NoProfile", "-Command", script)
	if err != nil {
		return "", apperrors.ErrDriver(what+" command failed", err)
	}
	return out, nil
}

// HyperVDriver runs workloads as Hyper-V virtual machines through PowerShell.
type HyperVDriver struct {
	runner CommandRunner
}

// NewHyperVDriver creates a Hyper-V driver. A nil runner executes the real tools.
func NewHyperVDriver(runner CommandRunner) *HyperVDriver {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &HyperVDriver{runner: runner}
}

// Name implements ComputeDriver.
func (d *HyperVDriver) Name() string { return "hyperv" }

func (d *HyperVDriver) ps(ctx context.Context, script string) (string, error) {
	return runPowerShell(ctx, d.runner, "Hyper-V", script)
}

// CreateWorkload implements ComputeDriver. Generation 2 VMs are created
// without a disk; the image is not used.
func (d *HyperVDriver) CreateWorkload(
	ctx context.Context, id, _ string, _ float64, memMB int,
) (*api.WorkloadStatus, error) {
	script := fmt.Sprintf("New-VM -Name %s -MemoryStartupBytes %d -Generation 2; Start-VM -Name %s",
		psQuote(id), int64(memMB)*bytesPerMB, psQuote(id))
	if _, err := d.ps(ctx, script); err != nil {
		return nil, err
	}
	return &api.WorkloadStatus{ID: id, State: constants.StateRunning}, nil
}

// DeleteWorkload implements ComputeDriver.
func (d *HyperVDriver) DeleteWorkload(ctx context.Context, id string) error {
	_, err := d.ps(ctx, fmt.Sprintf("Stop-VM -Name %s -Force; Remove-VM -Name %s -Force", psQuote(id), psQuote(id)))
	return err
}

// GetWorkloadStatus implements ComputeDriver.
func (d *HyperVDriver) GetWorkloadStatus(ctx context.Context, id string) (*api.WorkloadStatus, error) {
	state, err := d.ps(ctx, fmt.Sprintf("(Get-VM -Name %s).State", psQuote(id)))
	if err != nil {
		return nil, err
	}

	status := &api.WorkloadStatus{ID: id, State: normalizeVMState(state)}
	// needs integration services inside the guest
	ip, ipErr := d.ps(ctx, fmt.Sprintf("(Get-VM -Name %s | Get-VMNetworkAdapter).IPAddresses[0]", psQuote(id)))
	if ipErr == nil && ip != "" {
		status.IPAddress = strPtr(ip)
	}
	return status, nil
}

type hyperVVM struct {
	Name  string `json:"Name"`
	State string `json:"State"`
}

// ListWorkloads implements ComputeDriver.
func (d *HyperVDriver) ListWorkloads(ctx context.Context) ([]api.WorkloadStatus, error) {
	out, err := d.ps(ctx, "Get-VM | Select-Object Name, @{n='State';e={$_.State.ToString()}} | ConvertTo-Json")
	if err != nil {
		return nil, err
	}

	vms, err := decodePowerShellList[hyperVVM](out)
	if err != nil {
		return nil, err
	}

	list := make([]api.WorkloadStatus, 0, len(vms))
	for _, vm := range vms {
		list = append(list, api.WorkloadStatus{ID: vm.Name, State: normalizeVMState(vm.State)})
	}
	return list, nil
}

// GetStats implements ComputeDriver.
func (d *HyperVDriver) GetStats(ctx context.Context) (*api.NodeStats, error) {
	out, err := d.ps(ctx, "(Get-VMHost).MemoryCapacity")
	if err != nil {
		return nil, err
	}

	var capacity uint64
	if _, scanErr := fmt.Sscan(out, &capacity); scanErr != nil {
		return nil, apperrors.ErrDriver("unexpected Get-VMHost output", scanErr)
	}
	return &api.NodeStats{MemoryTotalMB: capacity / bytesPerMB}, nil
}

func normalizeVMState(state string) string {
	switch strings.TrimSpace(state) {
	case "Running":
		return constants.StateRunning
	case "Off":
		return constants.StateStopped
	default:
		return constants.StateUnknown
	}
}

// decodePowerShellList decodes ConvertTo-Json output, which is a bare
// object when the pipeline yields a single item.
func decodePowerShellList[T any](out string) ([]T, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	var list []T
	if strings.HasPrefix(out, "[") {
		if err := json.Unmarshal([]byte(out), &list); err != nil {
			return nil, apperrors.ErrDriver("JSON parse error", err)
		}
		return list, nil
	}

	var item T
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		return nil, apperrors.ErrDriver("JSON parse error", err)
	}
	return []T{item}, nil
}
