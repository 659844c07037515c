package api

import "encoding/json"

// Store

// CreateBucketRequest is the body of POST /v1/store/buckets.
type CreateBucketRequest struct {
	Name string `json:"name" validate:"required"`
}

// BucketsResponse is returned by GET /v1/store/buckets.
type BucketsResponse struct {
	Buckets []string `json:"buckets"`
}

// DB

// CreateTableRequest is the body of POST /v1/db/tables.
type CreateTableRequest struct {
	Name string `json:"name" validate:"required,max=64"`
	PK   string `json:"pk,omitempty"`
}

// CreateTableResponse acknowledges a created table.
type CreateTableResponse struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	PK     string `json:"pk"`
}

// TablesResponse is returned by GET /v1/db/tables.
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// PutItemRequest is the body of POST /v1/db/tables/{table}/items.
type PutItemRequest struct {
	PK   string          `json:"pk" validate:"required"`
	Item json.RawMessage `json:"item" validate:"required"`
}

// ItemResponse is returned by GET /v1/db/tables/{table}/items/{pk}.
type ItemResponse struct {
	PK   string          `json:"pk"`
	Item json.RawMessage `json:"item"`
}

// Func

// CreateFunctionRequest is the body of POST /v1/func/functions.
type CreateFunctionRequest struct {
	Name    string `json:"name" validate:"required"`
	Handler string `json:"handler" validate:"required"`
	Code    string `json:"code" validate:"required"`
}

// FunctionsResponse is returned by GET /v1/func/functions.
type FunctionsResponse struct {
	Functions []string `json:"functions"`
}

// InvokeResponse is the outcome of a function invocation. Executed
// invocations fill Stdout, Stderr and ExitCode; mock invocations fill
// Warning and Result.
type InvokeResponse struct {
	Status   string `json:"status"`
	Function string `json:"function"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Warning  string `json:"warning,omitempty"`
	Result   string `json:"result,omitempty"`
}

// Queue

// CreateQueueRequest is the body of POST /v1/queue/queues.
type CreateQueueRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateQueueResponse returns the URL of a created queue.
type CreateQueueResponse struct {
	QueueURL string `json:"QueueUrl"`
}

// QueuesResponse is returned by GET /v1/queue/queues.
type QueuesResponse struct {
	QueueURLs []string `json:"QueueUrls"`
}

// SendMessageRequest is the body of POST /v1/queue/queues/{queue}/messages.
type SendMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// SendMessageResponse returns the ID of an enqueued message.
type SendMessageResponse struct {
	MessageID string `json:"MessageId"`
}

// Message is a received queue message.
type Message struct {
	MessageID     string `json:"MessageId"`
	Body          string `json:"Body"`
	ReceiptHandle string `json:"ReceiptHandle"`
}

// ReceiveMessageResponse carries at most one message; Messages is null when
// the queue holds no visible message.
type ReceiveMessageResponse struct {
	Messages *Message `json:"Messages"`
}

// DeleteMessageRequest is the body of DELETE /v1/queue/queues/{queue}/messages.
type DeleteMessageRequest struct {
	ReceiptHandle string `json:"receipt_handle" validate:"required"`
}

// IAM

// CreatePrincipalRequest is the body used to create users, roles and groups.
type CreatePrincipalRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreatePrincipalResponse returns the ARN of a created principal.
type CreatePrincipalResponse struct {
	Status string `json:"status"`
	Arn    string `json:"Arn"`
}

// AttachPolicyRequest is the body of POST /v1/iam/users/{user}/policy.
// PolicyDocument may be a JSON object or a string holding JSON.
type AttachPolicyRequest struct {
	PolicyDocument json.RawMessage `json:"PolicyDocument" validate:"required"`
}

// Principal is a listed user, role or group. Exactly one of the name
// fields is set, matching the listing.
type Principal struct {
	UserName  string `json:"UserName,omitempty"`
	RoleName  string `json:"RoleName,omitempty"`
	GroupName string `json:"GroupName,omitempty"`
	Arn       string `json:"Arn"`
	Policy    string `json:"Policy"`
}

// UsersResponse is returned by GET /v1/iam/users.
type UsersResponse struct {
	Users []Principal `json:"Users"`
}

// RolesResponse is returned by GET /v1/iam/roles.
type RolesResponse struct {
	Roles []Principal `json:"Roles"`
}

// GroupsResponse is returned by GET /v1/iam/groups.
type GroupsResponse struct {
	Groups []Principal `json:"Groups"`
}

// CheckPermissionRequest is the body of POST /v1/iam/check.
type CheckPermissionRequest struct {
	UserName string `json:"username" validate:"required"`
	Action   string `json:"action" validate:"required"`
	Resource string `json:"resource" validate:"required"`
}

// CheckPermissionResponse reports the decision of a permission check.
type CheckPermissionResponse struct {
	Allowed bool `json:"allowed"`
}

// Load balancing

// CreateLoadBalancerRequest is the body of POST /v1/network/loadbalancers.
type CreateLoadBalancerRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type,omitempty" validate:"omitempty,oneof=application network"`
}

// LoadBalancerState is the AWS-style status wrapper.
type LoadBalancerState struct {
	Code string `json:"Code"`
}

// LoadBalancer describes a load balancer.
type LoadBalancer struct {
	LoadBalancerName string            `json:"LoadBalancerName"`
	DNSName          string            `json:"DNSName"`
	Status           LoadBalancerState `json:"Status"`
	Type             string            `json:"Type"`
}

// LoadBalancersResponse is returned by GET /v1/network/loadbalancers.
type LoadBalancersResponse struct {
	LoadBalancers []LoadBalancer `json:"LoadBalancers"`
}

// CreateTargetGroupRequest is the body of POST /v1/network/targetgroups.
type CreateTargetGroupRequest struct {
	Name     string `json:"name" validate:"required"`
	Port     int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Protocol string `json:"protocol,omitempty"`
}

// CreateTargetGroupResponse returns the ARN of a created target group.
type CreateTargetGroupResponse struct {
	TargetGroupArn string `json:"TargetGroupArn"`
}

// RegisterTargetRequest is the body of POST /v1/network/targetgroups/targets.
type RegisterTargetRequest struct {
	TargetGroupArn string `json:"target_group_arn" validate:"required"`
	TargetID       string `json:"target_id" validate:"required"`
	Port           int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
}

// CreateListenerRequest is the body of POST /v1/network/listeners.
type CreateListenerRequest struct {
	LoadBalancerName string `json:"lb_name" validate:"required"`
	Port             int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Protocol         string `json:"protocol,omitempty"`
	TargetGroupArn   string `json:"target_group_arn" validate:"required"`
}

// CreateListenerResponse returns the ARN of a created listener.
type CreateListenerResponse struct {
	ListenerArn string `json:"ListenerArn"`
}

// EKS

// EKSRequest is the body of POST /v1/eks/{action}.
type EKSRequest struct {
	Name          string `json:"name,omitempty"`
	NodegroupName string `json:"nodegroupName,omitempty"`
}

// CertificateAuthority carries the cluster CA bundle.
type CertificateAuthority struct {
	Data string `json:"data"`
}

// Cluster describes a Kubernetes cluster.
type Cluster struct {
	Name                 string               `json:"name"`
	Arn                  string               `json:"arn"`
	Status               string               `json:"status"`
	Endpoint             string               `json:"endpoint"`
	CertificateAuthority CertificateAuthority `json:"certificateAuthority"`
	Version              string               `json:"version"`
}

// ClusterResponse wraps a cluster.
type ClusterResponse struct {
	Cluster Cluster `json:"cluster"`
}

// Nodegroup describes a cluster node group.
type Nodegroup struct {
	NodegroupName string `json:"nodegroupName"`
	NodegroupArn  string `json:"nodegroupArn"`
	ClusterName   string `json:"clusterName"`
	Status        string `json:"status"`
}

// NodegroupResponse wraps a node group.
type NodegroupResponse struct {
	Nodegroup Nodegroup `json:"nodegroup"`
}
