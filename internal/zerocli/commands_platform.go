package zerocli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloudemu/zero/internal/api"
)

// IAMCreatePrincipal creates a user, role or group. Kind is one of
// "user", "role" or "group".
type IAMCreatePrincipal struct {
	Kind      string
	Principal string
}

func (c IAMCreatePrincipal) Name() string { return "iam create-" + c.Kind }

func (c IAMCreatePrincipal) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/iam/"+c.Kind+"s", api.CreatePrincipalRequest{Name: c.Principal})
}

func (c IAMCreatePrincipal) progress() string {
	return fmt.Sprintf("Creating %s %s...", c.Kind, c.Principal)
}

// IAMListPrincipals lists users, roles or groups.
type IAMListPrincipals struct {
	Kind string
}

func (c IAMListPrincipals) Name() string { return "iam list-" + c.Kind + "s" }

func (c IAMListPrincipals) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/iam/"+c.Kind+"s", nil)
}

func (IAMListPrincipals) progress() string { return "" }

// IAMAttachPolicy attaches a policy document to a user.
type IAMAttachPolicy struct {
	Username string
	Policy   string
}

func (IAMAttachPolicy) Name() string { return "iam attach-policy" }

func (c IAMAttachPolicy) request() (*api.Request, error) {
	doc := json.RawMessage(c.Policy)
	if !json.Valid(doc) {
		// let the server reject it with its own message
		quoted, err := json.Marshal(c.Policy)
		if err != nil {
			return nil, fmt.Errorf("failed to encode policy: %w", err)
		}
		doc = quoted
	}
	return api.NewRequest(http.MethodPost, "/v1/iam/users/"+escape(c.Username)+"/policy",
		api.AttachPolicyRequest{PolicyDocument: doc})
}

func (c IAMAttachPolicy) progress() string {
	return fmt.Sprintf("Attaching policy to %s...", c.Username)
}

// IAMCheck evaluates whether a user may perform an action on a resource.
type IAMCheck struct {
	Username string
	Action   string
	Resource string
}

func (IAMCheck) Name() string { return "iam check" }

func (c IAMCheck) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/iam/check", api.CheckPermissionRequest{
		UserName: c.Username,
		Action:   c.Action,
		Resource: c.Resource,
	})
}

func (IAMCheck) progress() string { return "" }

// LBCreate creates a load balancer.
type LBCreate struct {
	LoadBalancer string
	Type         string
}

func (LBCreate) Name() string { return "lb create" }

func (c LBCreate) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/network/loadbalancers",
		api.CreateLoadBalancerRequest{Name: c.LoadBalancer, Type: c.Type})
}

func (c LBCreate) progress() string {
	return fmt.Sprintf("Creating load balancer %s...", c.LoadBalancer)
}

// LBCreateTargetGroup creates a target group.
type LBCreateTargetGroup struct {
	TargetGroup string
	Port        int
}

func (LBCreateTargetGroup) Name() string { return "lb create-target-group" }

func (c LBCreateTargetGroup) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/network/targetgroups",
		api.CreateTargetGroupRequest{Name: c.TargetGroup, Port: c.Port})
}

func (c LBCreateTargetGroup) progress() string {
	return fmt.Sprintf("Creating target group %s on port %d...", c.TargetGroup, c.Port)
}

// LBRegister registers a target with a target group.
type LBRegister struct {
	TargetGroupArn string
	TargetID       string
	Port           int
}

func (LBRegister) Name() string { return "lb register" }

func (c LBRegister) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/network/targetgroups/targets", api.RegisterTargetRequest{
		TargetGroupArn: c.TargetGroupArn,
		TargetID:       c.TargetID,
		Port:           c.Port,
	})
}

func (c LBRegister) progress() string {
	return fmt.Sprintf("Registering target %s to group %s...", c.TargetID, c.TargetGroupArn)
}

// LBCreateListener creates a listener forwarding to a target group.
type LBCreateListener struct {
	LoadBalancer   string
	Port           int
	TargetGroupArn string
}

func (LBCreateListener) Name() string { return "lb create-listener" }

func (c LBCreateListener) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/network/listeners", api.CreateListenerRequest{
		LoadBalancerName: c.LoadBalancer,
		Port:             c.Port,
		TargetGroupArn:   c.TargetGroupArn,
	})
}

func (c LBCreateListener) progress() string {
	return fmt.Sprintf("Creating listener for %s on port %d...", c.LoadBalancer, c.Port)
}

// LBList lists load balancers.
type LBList struct{}

func (LBList) Name() string { return "lb ls" }

func (LBList) request() (*api.Request, error) {
	return api.NewRequest(http.MethodGet, "/v1/network/loadbalancers", nil)
}

func (LBList) progress() string { return "" }

// EKS runs one cluster or nodegroup action, e.g. "CreateCluster".
type EKS struct {
	Action    string
	Cluster   string
	Nodegroup string
}

func (c EKS) Name() string { return "eks " + c.Action }

func (c EKS) request() (*api.Request, error) {
	return api.NewRequest(http.MethodPost, "/v1/eks/"+escape(c.Action),
		api.EKSRequest{Name: c.Cluster, NodegroupName: c.Nodegroup})
}

func (EKS) progress() string { return "" }

// Serve runs the HTTP facade.
type Serve struct {
	// Port overrides the configured port when non-zero.
	Port int
	// Mock serves a fully mocked engine.
	Mock bool
}

func (Serve) Name() string { return "serve" }

// Events streams resource events from a running facade.
type Events struct{}

func (Events) Name() string { return "events" }
