package cmd

import (
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/zerocli"

	"github.com/spf13/cobra"
)

func (p *parser) workloadCmd() *cobra.Command {
	var up zerocli.WorkloadUp
	upCmd := p.leaf("up", "Start a workload", func() (zerocli.Command, error) {
		return up, nil
	})
	upCmd.Flags().StringVarP(&up.ID, "id", "i", "", "Workload ID")
	upCmd.Flags().StringVarP(&up.Image, "image", "m", "", "Image to run")
	required(upCmd, "id", "image")

	var down zerocli.WorkloadDown
	downCmd := p.leaf("down", "Stop and remove a workload", func() (zerocli.Command, error) {
		return down, nil
	})
	downCmd.Flags().StringVarP(&down.ID, "id", "i", "", "Workload ID")
	required(downCmd, "id")

	lsCmd := p.leaf("ls", "List workloads", func() (zerocli.Command, error) {
		return zerocli.WorkloadList{}, nil
	})

	return group("workload", "Manage compute workloads", upCmd, downCmd, lsCmd)
}

func (p *parser) volumeCmd() *cobra.Command {
	var create zerocli.VolumeCreate
	createCmd := p.leaf("create", "Create a block volume", func() (zerocli.Command, error) {
		return create, nil
	})
	createCmd.Flags().StringVarP(&create.ID, "id", "i", "", "Volume ID")
	createCmd.Flags().IntVarP(&create.SizeGB, "size", "s", constants.DefaultVolumeSizeGB, "Size in GB")
	required(createCmd, "id")

	lsCmd := p.leaf("ls", "List volumes", func() (zerocli.Command, error) {
		return zerocli.VolumeList{}, nil
	})

	return group("volume", "Manage block volumes", createCmd, lsCmd)
}

func (p *parser) nodeCmd() *cobra.Command {
	listCmd := p.leaf("list", "List registered nodes", func() (zerocli.Command, error) {
		return zerocli.NodeList{}, nil
	})
	listCmd.Aliases = []string{"ls"}
	return group("node", "Inspect cluster nodes", listCmd)
}

func (p *parser) networkCmd() *cobra.Command {
	var create zerocli.NetworkCreate
	createCmd := p.leaf("create", "Create a virtual network", func() (zerocli.Command, error) {
		return create, nil
	})
	createCmd.Flags().StringVarP(&create.ID, "id", "i", "", "Network ID")
	createCmd.Flags().StringVarP(&create.CIDR, "cidr", "c", constants.DefaultNetworkCIDR, "Address range")
	required(createCmd, "id")

	lsCmd := p.leaf("ls", "List networks", func() (zerocli.Command, error) {
		return zerocli.NetworkList{}, nil
	})

	return group("network", "Manage virtual networks", createCmd, lsCmd)
}
