package cmd

import (
	"fmt"
	"slices"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/services"
	"github.com/cloudemu/zero/internal/zerocli"

	"github.com/spf13/cobra"
)

var loadBalancerTypes = []string{"application", "network"}

func (p *parser) iamCmd() *cobra.Command {
	children := []*cobra.Command{}
	for _, kind := range []string{"user", "role", "group"} {
		create := zerocli.IAMCreatePrincipal{Kind: kind}
		flag := kind + "name"
		createCmd := p.leaf("create-"+kind, "Create an IAM "+kind, func() (zerocli.Command, error) {
			return create, nil
		})
		createCmd.Flags().StringVar(&create.Principal, flag, "", "Name of the "+kind)
		required(createCmd, flag)

		listCmd := p.leaf("list-"+kind+"s", "List IAM "+kind+"s", func() (zerocli.Command, error) {
			return zerocli.IAMListPrincipals{Kind: kind}, nil
		})
		children = append(children, createCmd, listCmd)
	}

	var attach zerocli.IAMAttachPolicy
	attachCmd := p.leaf("attach-policy", "Attach a policy document to a user", func() (zerocli.Command, error) {
		return attach, nil
	})
	attachCmd.Flags().StringVar(&attach.Username, "username", "", "User name")
	attachCmd.Flags().StringVarP(&attach.Policy, "policy", "p", "", "Policy document (JSON)")
	required(attachCmd, "username", "policy")

	var check zerocli.IAMCheck
	checkCmd := p.leaf("check", "Check whether a user may perform an action", func() (zerocli.Command, error) {
		return check, nil
	})
	checkCmd.Flags().StringVar(&check.Username, "username", "", "User name")
	checkCmd.Flags().StringVar(&check.Action, "action", "", "Action, e.g. s3:GetObject")
	checkCmd.Flags().StringVar(&check.Resource, "resource", "", "Resource ARN")
	required(checkCmd, "username", "action", "resource")

	children = append(children, attachCmd, checkCmd)
	return group("iam", "Identity and access management (ZeroIAM)", children...)
}

func (p *parser) lbCmd() *cobra.Command {
	var create zerocli.LBCreate
	createCmd := p.leaf("create", "Create a load balancer", func() (zerocli.Command, error) {
		if !slices.Contains(loadBalancerTypes, create.Type) {
			return nil, fmt.Errorf("invalid --lb-type %q (must be one of %v)", create.Type, loadBalancerTypes)
		}
		return create, nil
	})
	createCmd.Flags().StringVarP(&create.LoadBalancer, "name", "n", "", "Load balancer name")
	createCmd.Flags().StringVarP(&create.Type, "lb-type", "t", constants.DefaultLoadBalancerType,
		"Load balancer type: application or network")
	required(createCmd, "name")

	var tg zerocli.LBCreateTargetGroup
	tgCmd := p.leaf("create-target-group", "Create a target group", func() (zerocli.Command, error) {
		return tg, nil
	})
	tgCmd.Flags().StringVarP(&tg.TargetGroup, "name", "n", "", "Target group name")
	tgCmd.Flags().IntVar(&tg.Port, "port", constants.DefaultTargetPort, "Target port")
	required(tgCmd, "name")

	var register zerocli.LBRegister
	registerCmd := p.leaf("register", "Register a target with a target group", func() (zerocli.Command, error) {
		return register, nil
	})
	registerCmd.Flags().StringVar(&register.TargetGroupArn, "group", "", "Target group ARN")
	registerCmd.Flags().StringVar(&register.TargetID, "id", "", "Target ID (workload ID)")
	registerCmd.Flags().IntVar(&register.Port, "port", constants.DefaultTargetPort, "Target port")
	required(registerCmd, "group", "id")

	var listener zerocli.LBCreateListener
	listenerCmd := p.leaf("create-listener", "Create a listener", func() (zerocli.Command, error) {
		return listener, nil
	})
	listenerCmd.Flags().StringVar(&listener.LoadBalancer, "lb", "", "Load balancer name")
	listenerCmd.Flags().IntVar(&listener.Port, "port", constants.DefaultTargetPort, "Listener port")
	listenerCmd.Flags().StringVar(&listener.TargetGroupArn, "target-group", "", "Target group ARN to forward to")
	required(listenerCmd, "lb", "target-group")

	lsCmd := p.leaf("ls", "List load balancers", func() (zerocli.Command, error) {
		return zerocli.LBList{}, nil
	})

	return group("lb", "Load balancing (ZeroLB)", createCmd, tgCmd, registerCmd, listenerCmd, lsCmd)
}

func (p *parser) eksCmd() *cobra.Command {
	actions := []struct {
		use, action, short string
		nodegroup          bool
	}{
		{"create-cluster", services.ActionCreateCluster, "Create a cluster", false},
		{"describe-cluster", services.ActionDescribeCluster, "Describe a cluster", false},
		{"delete-cluster", services.ActionDeleteCluster, "Delete a cluster", false},
		{"create-nodegroup", services.ActionCreateNodegroup, "Create a nodegroup", true},
		{"describe-nodegroup", services.ActionDescribeNodegroup, "Describe a nodegroup", true},
		{"delete-nodegroup", services.ActionDeleteNodegroup, "Delete a nodegroup", true},
	}

	children := make([]*cobra.Command, 0, len(actions))
	for _, a := range actions {
		eks := zerocli.EKS{Action: a.action}
		cmd := p.leaf(a.use, a.short, func() (zerocli.Command, error) {
			return eks, nil
		})
		cmd.Flags().StringVarP(&eks.Cluster, "name", "n", "", "Cluster name")
		required(cmd, "name")
		if a.nodegroup {
			cmd.Flags().StringVar(&eks.Nodegroup, "nodegroup", "", "Nodegroup name")
			required(cmd, "nodegroup")
		}
		children = append(children, cmd)
	}
	return group("eks", "Managed Kubernetes (ZeroEKS)", children...)
}
