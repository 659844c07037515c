package driver

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const domIfAddrOutput = ` Name       MAC address          Protocol     Address
-------------------------------------------------------------------------------
 vnet0      52:54:00:aa:bb:cc    ipv4         192.168.122.45/24`

func TestKvmDriver_CreateWorkload(t *testing.T) {
	runner := newFakeRunner()
	d := NewKvmDriver(runner)

	status, err := d.CreateWorkload(context.Background(), "vm1", "ubuntu", 2, 1024)
	require.NoError(t, err)
	assert.Equal(t, constants.StateRunning, status.State)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.True(t, strings.HasPrefix(call, "virt-install --name vm1 --memory 1024 --vcpus 2"))
	assert.Contains(t, call, "--disk path=/var/lib/libvirt/images/vm1.qcow2,size=10")
	assert.Contains(t, call, "--graphics none")
}

func TestKvmDriver_CreateWorkloadFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["virt-install"] = "permission denied"

	_, err := NewKvmDriver(runner).CreateWorkload(context.Background(), "vm1", "ubuntu", 1, 512)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDriverError, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestKvmDriver_DeleteIgnoresDestroyFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.failures["virsh destroy"] = "domain is not running"

	require.NoError(t, NewKvmDriver(runner).DeleteWorkload(context.Background(), "vm1"))
	assert.Equal(t, []string{"virsh destroy vm1", "virsh undefine vm1 --remove-all-storage"}, runner.calls)
}

func TestKvmDriver_GetWorkloadStatus(t *testing.T) {
	tests := []struct {
		name     string
		domstate string
		expected string
	}{
		{"running", "running", constants.StateRunning},
		{"shut off", "shut off", constants.StateStopped},
		{"paused", "paused", constants.StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.responses["virsh domstate"] = tt.domstate
			runner.responses["virsh domifaddr"] = domIfAddrOutput

			status, err := NewKvmDriver(runner).GetWorkloadStatus(context.Background(), "vm1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status.State)
			require.NotNil(t, status.IPAddress)
			assert.Equal(t, "192.168.122.45", *status.IPAddress)
		})
	}
}

func TestKvmDriver_ListWorkloadsAndStats(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["virsh list"] = "vm1\nvm2\n"
	runner.responses["virsh domstate"] = "running"
	runner.responses["virsh nodememstats"] = "total  :             16384000 KiB\nfree   :              8192000 KiB\n"

	d := NewKvmDriver(runner)

	list, err := d.ListWorkloads(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "vm2", list[1].ID)

	stats, err := d.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16000), stats.MemoryTotalMB)
	assert.Equal(t, uint64(8000), stats.MemoryUsedMB)
}

func TestParseDomIfAddr(t *testing.T) {
	assert.Equal(t, "192.168.122.45", parseDomIfAddr(domIfAddrOutput))
	assert.Empty(t, parseDomIfAddr("no addresses"))
}

func TestNetworkXML(t *testing.T) {
	def, err := NetworkXML("zbr0", "10.0.5.0/24")
	require.NoError(t, err)

	xml := string(def)
	assert.Contains(t, xml, "<name>zbr0</name>")
	assert.Contains(t, xml, `<bridge name="zbr0" stp="on" delay="0"></bridge>`)
	assert.Contains(t, xml, `<ip address="10.0.5.1" netmask="255.255.255.0">`)
	assert.Contains(t, xml, `<range start="10.0.5.100" end="10.0.5.200"></range>`)

	wide, err := NetworkXML("wide", "172.16.0.0/16")
	require.NoError(t, err)
	assert.Contains(t, string(wide), `netmask="255.255.0.0"`)

	_, err = NetworkXML("bad", "not-a-cidr")
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetErrorCode(err))

	_, err = NetworkXML("tiny", "10.0.0.0/28")
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetErrorCode(err))
}

func TestLinuxNetworkDriver(t *testing.T) {
	ctx := context.Background()
	runner := newFakeRunner()
	runner.responses["virsh net-list"] = "default\nzbr0"
	d := NewLinuxNetworkDriver(runner)

	status, err := d.CreateNetwork(ctx, "zbr0", "10.0.5.0/24")
	require.NoError(t, err)
	assert.Equal(t, constants.StateAvailable, status.State)
	require.Len(t, runner.calls, 3)
	assert.True(t, strings.HasPrefix(runner.calls[0], "virsh net-define "))
	assert.Equal(t, "virsh net-start zbr0", runner.calls[1])
	assert.Equal(t, "virsh net-autostart zbr0", runner.calls[2])

	addr, err := d.ConnectWorkload(ctx, "vm1", "zbr0")
	require.NoError(t, err)
	assert.Equal(t, "CONNECTED", addr)
	assert.Contains(t, runner.calls[3], "attach-interface --domain vm1 --type network --source zbr0")

	list, err := d.ListNetworks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "default", list[0].ID)

	runner.failures["virsh net-destroy"] = "network is not active"
	require.NoError(t, d.DeleteNetwork(ctx, "zbr0"))
}
