package driver

import (
	"context"
	"fmt"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
)

// HyperVNetworkDriver manages Hyper-V internal virtual switches.
type HyperVNetworkDriver struct {
	runner CommandRunner
}

// NewHyperVNetworkDriver creates a Hyper-V switch driver. A nil runner
// executes the real tools.
func NewHyperVNetworkDriver(runner CommandRunner) *HyperVNetworkDriver {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &HyperVNetworkDriver{runner: runner}
}

// Name implements NetworkDriver.
func (d *HyperVNetworkDriver) Name() string { return "hyperv-switch" }

func (d *HyperVNetworkDriver) ps(ctx context.Context, script string) (string, error) {
	return runPowerShell(ctx, d.runner, "Hyper-V network", script)
}

// CreateNetwork implements NetworkDriver. Switches carry no address range,
// the CIDR is only recorded.
func (d *HyperVNetworkDriver) CreateNetwork(ctx context.Context, id, cidr string) (*api.NetworkStatus, error) {
	if _, err := d.ps(ctx, fmt.Sprintf("New-VMSwitch -Name %s -SwitchType Internal", psQuote(id))); err != nil {
		return nil, err
	}
	return &api.NetworkStatus{ID: id, CIDR: cidr, State: constants.StateAvailable}, nil
}

// DeleteNetwork implements NetworkDriver.
func (d *HyperVNetworkDriver) DeleteNetwork(ctx context.Context, id string) error {
	_, err := d.ps(ctx, fmt.Sprintf("Remove-VMSwitch -Name %s -Force", psQuote(id)))
	return err
}

// ConnectWorkload implements NetworkDriver.
func (d *HyperVNetworkDriver) ConnectWorkload(ctx context.Context, workloadID, networkID string) (string, error) {
	script := fmt.Sprintf("Connect-VMNetworkAdapter -VMName %s -SwitchName %s", psQuote(workloadID), psQuote(networkID))
	if _, err := d.ps(ctx, script); err != nil {
		return "", err
	}
	return "DHCP_ASSIGNED", nil
}

type hyperVSwitch struct {
	Name string `json:"Name"`
}

// ListNetworks implements NetworkDriver.
func (d *HyperVNetworkDriver) ListNetworks(ctx context.Context) ([]api.NetworkStatus, error) {
	out, err := d.ps(ctx, "Get-VMSwitch | Select-Object Name | ConvertTo-Json")
	if err != nil {
		return nil, err
	}

	switches, err := decodePowerShellList[hyperVSwitch](out)
	if err != nil {
		return nil, err
	}

	list := make([]api.NetworkStatus, 0, len(switches))
	for _, s := range switches {
		list = append(list, api.NetworkStatus{ID: s.Name, CIDR: constants.StateUnknown, State: constants.StateAvailable})
	}
	return list, nil
}
