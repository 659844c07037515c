package driver

import (
	"context"
	"testing"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPsQuote(t *testing.T) {
	assert.Equal(t, "'web'", psQuote("web"))
	assert.Equal(t, "'it''s'", psQuote("it's"))
}

func TestHyperVDriver(t *testing.T) {
	ctx := context.Background()
	runner := newFakeRunner()
	runner.responses["powershell -NoProfile -Command (Get-VM -Name 'vm1').State"] = "Off"
	runner.responses["powershell -NoProfile -Command (Get-VM -Name 'vm1' | Get-VMNetworkAdapter)"] = "172.20.0.5"
	runner.responses["powershell -NoProfile -Command Get-VM |"] = `{"Name":"vm1","State":"Running"}`
	runner.responses["powershell -NoProfile -Command (Get-VMHost)"] = "17179869184"
	d := NewHyperVDriver(runner)

	_, err := d.CreateWorkload(ctx, "vm1", "", 1, 512)
	require.NoError(t, err)
	assert.Equal(t,
		"powershell -NoProfile -Command New-VM -Name 'vm1' -MemoryStartupBytes 536870912 -Generation 2; Start-VM -Name 'vm1'",
		runner.calls[0])

	status, err := d.GetWorkloadStatus(ctx, "vm1")
	require.NoError(t, err)
	assert.Equal(t, constants.StateStopped, status.State)
	require.NotNil(t, status.IPAddress)
	assert.Equal(t, "172.20.0.5", *status.IPAddress)

	list, err := d.ListWorkloads(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "a single object is decoded as a one element list")
	assert.Equal(t, constants.StateRunning, list[0].State)

	stats, err := d.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(16384), stats.MemoryTotalMB)

	require.NoError(t, d.DeleteWorkload(ctx, "vm1"))
}

func TestHyperVDriverFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["powershell"] = "Hyper-V is not enabled"

	_, err := NewHyperVDriver(runner).CreateWorkload(context.Background(), "vm1", "", 1, 512)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDriverError, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "Hyper-V command failed")
}

func TestHyperVNetworkDriver(t *testing.T) {
	ctx := context.Background()
	runner := newFakeRunner()
	runner.responses["powershell -NoProfile -Command Get-VMSwitch"] = `[{"Name":"Default Switch"},{"Name":"zero"}]`
	d := NewHyperVNetworkDriver(runner)

	status, err := d.CreateNetwork(ctx, "zero", "10.0.0.0/24")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/24", status.CIDR)

	addr, err := d.ConnectWorkload(ctx, "vm1", "zero")
	require.NoError(t, err)
	assert.Equal(t, "DHCP_ASSIGNED", addr)

	list, err := d.ListNetworks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default Switch", list[0].ID)

	require.NoError(t, d.DeleteNetwork(ctx, "zero"))
}

func TestDecodePowerShellList(t *testing.T) {
	empty, err := decodePowerShellList[hyperVSwitch]("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = decodePowerShellList[hyperVSwitch]("not json")
	assert.Error(t, err)
}
