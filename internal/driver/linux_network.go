package driver

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/netip"
	"os"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
)

const (
	dhcpRangeStart = 100
	dhcpRangeEnd   = 200

	maxBridgePrefixBits = 24
)

// LinuxNetworkDriver manages libvirt networks backed by Linux bridges.
type LinuxNetworkDriver struct {
	runner CommandRunner
}

// NewLinuxNetworkDriver creates a bridge network driver. A nil runner
// executes the real tools.
func NewLinuxNetworkDriver(runner CommandRunner) *LinuxNetworkDriver {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &LinuxNetworkDriver{runner: runner}
}

// Name implements NetworkDriver.
func (d *LinuxNetworkDriver) Name() string { return "linux-bridge" }

func (d *LinuxNetworkDriver) virsh(ctx context.Context, args ...string) (string, error) {
	out, err := d.runner.Run(ctx, virshBinary, args...)
	if err != nil {
		return "", apperrors.ErrDriver("Linux network command failed", err)
	}
	return out, nil
}

type libvirtNetwork struct {
	XMLName xml.Name      `xml:"network"`
	Name    string        `xml:"name"`
	Bridge  libvirtBridge `xml:"bridge"`
	IP      libvirtIP     `xml:"ip"`
}

type libvirtBridge struct {
	Name  string `xml:"name,attr"`
	STP   string `xml:"stp,attr"`
	Delay string `xml:"delay,attr"`
}

type libvirtIP struct {
	Address string      `xml:"address,attr"`
	Netmask string      `xml:"netmask,attr"`
	DHCP    libvirtDHCP `xml:"dhcp"`
}

type libvirtDHCP struct {
	Range libvirtRange `xml:"range"`
}

type libvirtRange struct {
	Start string `xml:"start,attr"`
	End   string `xml:"end,attr"`
}

// NetworkXML renders the libvirt definition of a bridged network: the
// bridge is named after the network, the gateway takes the first host
// address and DHCP hands out .100 to .200 of the prefix.
func NetworkXML(id, cidr string) ([]byte, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() {
		return nil, apperrors.ErrValidation(fmt.Sprintf("invalid IPv4 CIDR %q", cidr), err)
	}
	if prefix.Bits() > maxBridgePrefixBits {
		return nil, apperrors.ErrValidation(
			fmt.Sprintf("CIDR %q is too small for the DHCP range, use /%d or wider", cidr, maxBridgePrefixBits), nil)
	}
	prefix = prefix.Masked()

	base := prefix.Addr().As4()
	nth := func(n int) string {
		a := base
		a[3] += byte(n)
		return netip.AddrFrom4(a).String()
	}

	var maskBytes [4]byte
	for i := range prefix.Bits() {
		maskBytes[i/8] |= 1 << (7 - uint(i%8))
	}

	def := libvirtNetwork{
		Name:   id,
		Bridge: libvirtBridge{Name: id, STP: "on", Delay: "0"},
		IP: libvirtIP{
			Address: nth(1),
			Netmask: netip.AddrFrom4(maskBytes).String(),
			DHCP: libvirtDHCP{Range: libvirtRange{
				Start: nth(dhcpRangeStart),
				End:   nth(dhcpRangeEnd),
			}},
		},
	}

	return xml.MarshalIndent(def, "", "  ")
}

// CreateNetwork implements NetworkDriver.
func (d *LinuxNetworkDriver) CreateNetwork(ctx context.Context, id, cidr string) (*api.NetworkStatus, error) {
	def, err := NetworkXML(id, cidr)
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "zero-net-*.xml")
	if err != nil {
		return nil, apperrors.ErrDriver("failed to write network definition", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err = f.Write(def); err != nil {
		_ = f.Close()
		return nil, apperrors.ErrDriver("failed to write network definition", err)
	}
	if err = f.Close(); err != nil {
		return nil, apperrors.ErrDriver("failed to write network definition", err)
	}

	for _, args := range [][]string{
		{"net-define", f.Name()},
		{"net-start", id},
		{"net-autostart", id},
	} {
		if _, err = d.virsh(ctx, args...); err != nil {
			return nil, err
		}
	}

	return &api.NetworkStatus{ID: id, CIDR: cidr, State: constants.StateAvailable}, nil
}

// DeleteNetwork implements NetworkDriver.
func (d *LinuxNetworkDriver) DeleteNetwork(ctx context.Context, id string) error {
	// net-destroy fails for inactive networks
	_, _ = d.virsh(ctx, "net-destroy", id)

	_, err := d.virsh(ctx, "net-undefine", id)
	return err
}

// ConnectWorkload implements NetworkDriver. Addresses are assigned by the
// network's DHCP server.
func (d *LinuxNetworkDriver) ConnectWorkload(ctx context.Context, workloadID, networkID string) (string, error) {
	_, err := d.virsh(ctx, "attach-interface",
		"--domain", workloadID,
		"--type", "network",
		"--source", networkID,
		"--model", "virtio",
		"--config", "--live",
	)
	if err != nil {
		return "", err
	}
	return "CONNECTED", nil
}

// ListNetworks implements NetworkDriver.
func (d *LinuxNetworkDriver) ListNetworks(ctx context.Context) ([]api.NetworkStatus, error) {
	out, err := d.virsh(ctx, "net-list", "--all", "--name")
	if err != nil {
		return nil, err
	}

	var list []api.NetworkStatus
	for _, name := range nonEmptyLines(out) {
		list = append(list, api.NetworkStatus{ID: name, CIDR: constants.StateUnknown, State: constants.StateAvailable})
	}
	return list, nil
}
