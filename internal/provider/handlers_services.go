package provider

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cloudemu/zero/internal/api"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/events"
	"github.com/cloudemu/zero/internal/services"
)

const (
	resourceBucket       = "bucket"
	resourceTable        = "table"
	resourceItem         = "item"
	resourceFunction     = "function"
	resourceQueue        = "queue"
	resourceMessage      = "message"
	resourceLoadBalancer = "loadbalancer"
	resourceTargetGroup  = "targetgroup"
	resourceListener     = "listener"
	resourceCluster      = "cluster"
	resourceNodegroup    = "nodegroup"
)

// handleCreateBucket handles POST /v1/store/buckets.
func (p *Provider) handleCreateBucket(w http.ResponseWriter, req *http.Request) {
	var body api.CreateBucketRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create bucket")
		return
	}

	if err := p.svc.Store.CreateBucket(req.Context(), body.Name); err != nil {
		p.handleAndLogError(w, req, err, "create bucket")
		return
	}

	p.publish(events.TypeCreated, resourceBucket, body.Name)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Created", Name: body.Name})
}

// handleListBuckets handles GET /v1/store/buckets.
func (p *Provider) handleListBuckets(w http.ResponseWriter, req *http.Request) {
	buckets, err := p.svc.Store.ListBuckets(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list buckets")
		return
	}
	writeJSON(w, http.StatusOK, api.BucketsResponse{Buckets: buckets})
}

// handleCreateTable handles POST /v1/db/tables.
func (p *Provider) handleCreateTable(w http.ResponseWriter, req *http.Request) {
	var body api.CreateTableRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create table")
		return
	}

	resp, err := p.svc.DB.CreateTable(req.Context(), body.Name, body.PK)
	if err != nil {
		p.handleAndLogError(w, req, err, "create table")
		return
	}

	p.publish(events.TypeCreated, resourceTable, body.Name)
	writeJSON(w, http.StatusOK, resp)
}

// handleListTables handles GET /v1/db/tables.
func (p *Provider) handleListTables(w http.ResponseWriter, req *http.Request) {
	tables, err := p.svc.DB.ListTables(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list tables")
		return
	}
	writeJSON(w, http.StatusOK, api.TablesResponse{Tables: tables})
}

// handlePutItem handles POST /v1/db/tables/{table}/items.
func (p *Provider) handlePutItem(w http.ResponseWriter, req *http.Request) {
	table, err := getRequiredURLParam(req, "table")
	if err != nil {
		p.handleAndLogError(w, req, err, "put item")
		return
	}

	var body api.PutItemRequest
	if err = p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "put item")
		return
	}

	if err = p.svc.DB.PutItem(req.Context(), table, body.PK, body.Item); err != nil {
		p.handleAndLogError(w, req, err, "put item")
		return
	}

	p.publish(events.TypeUpdated, resourceItem, table+"/"+body.PK)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Stored"})
}

// handleGetItem handles GET /v1/db/tables/{table}/items/{pk}.
func (p *Provider) handleGetItem(w http.ResponseWriter, req *http.Request) {
	table, err := getRequiredURLParam(req, "table")
	if err != nil {
		p.handleAndLogError(w, req, err, "get item")
		return
	}
	pk, err := getRequiredURLParam(req, "pk")
	if err != nil {
		p.handleAndLogError(w, req, err, "get item")
		return
	}

	item, err := p.svc.DB.GetItem(req.Context(), table, pk)
	if err != nil {
		p.handleAndLogError(w, req, err, "get item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleCreateFunction handles POST /v1/func/functions.
func (p *Provider) handleCreateFunction(w http.ResponseWriter, req *http.Request) {
	var body api.CreateFunctionRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "deploy function")
		return
	}

	if err := p.svc.Func.CreateFunction(req.Context(), body.Name, body.Handler, body.Code); err != nil {
		p.handleAndLogError(w, req, err, "deploy function")
		return
	}

	p.publish(events.TypeCreated, resourceFunction, body.Name)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Deployed", Name: body.Name})
}

// handleListFunctions handles GET /v1/func/functions.
func (p *Provider) handleListFunctions(w http.ResponseWriter, req *http.Request) {
	names, err := p.svc.Func.ListFunctions(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list functions")
		return
	}
	writeJSON(w, http.StatusOK, api.FunctionsResponse{Functions: names})
}

// handleInvokeFunction handles POST /v1/func/functions/{name}/invocations.
// The request body is the payload passed to the function.
func (p *Provider) handleInvokeFunction(w http.ResponseWriter, req *http.Request) {
	name, err := getRequiredURLParam(req, "name")
	if err != nil {
		p.handleAndLogError(w, req, err, "invoke function")
		return
	}

	payload, err := io.ReadAll(req.Body)
	if err != nil {
		p.handleAndLogError(w, req, apperrors.ErrBadRequest("failed to read payload", err), "invoke function")
		return
	}

	resp, err := p.svc.Func.Invoke(req.Context(), name, json.RawMessage(payload))
	if err != nil {
		p.handleAndLogError(w, req, err, "invoke function")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateQueue handles POST /v1/queue/queues.
func (p *Provider) handleCreateQueue(w http.ResponseWriter, req *http.Request) {
	var body api.CreateQueueRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create queue")
		return
	}

	url, err := p.svc.Queue.CreateQueue(req.Context(), body.Name)
	if err != nil {
		p.handleAndLogError(w, req, err, "create queue")
		return
	}

	p.publish(events.TypeCreated, resourceQueue, body.Name)
	writeJSON(w, http.StatusOK, api.CreateQueueResponse{QueueURL: url})
}

// handleListQueues handles GET /v1/queue/queues.
func (p *Provider) handleListQueues(w http.ResponseWriter, req *http.Request) {
	urls, err := p.svc.Queue.ListQueues(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list queues")
		return
	}
	writeJSON(w, http.StatusOK, api.QueuesResponse{QueueURLs: urls})
}

// handleSendMessage handles POST /v1/queue/queues/{queue}/messages.
func (p *Provider) handleSendMessage(w http.ResponseWriter, req *http.Request) {
	queue, err := getRequiredURLParam(req, "queue")
	if err != nil {
		p.handleAndLogError(w, req, err, "send message")
		return
	}

	var body api.SendMessageRequest
	if err = p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "send message")
		return
	}

	id, err := p.svc.Queue.SendMessage(req.Context(), queue, body.Body)
	if err != nil {
		p.handleAndLogError(w, req, err, "send message")
		return
	}

	p.publish(events.TypeCreated, resourceMessage, queue+"/"+id)
	writeJSON(w, http.StatusOK, api.SendMessageResponse{MessageID: id})
}

// handleReceiveMessage handles POST /v1/queue/queues/{queue}/receive.
func (p *Provider) handleReceiveMessage(w http.ResponseWriter, req *http.Request) {
	queue, err := getRequiredURLParam(req, "queue")
	if err != nil {
		p.handleAndLogError(w, req, err, "receive message")
		return
	}

	msg, err := p.svc.Queue.ReceiveMessage(req.Context(), queue)
	if err != nil {
		p.handleAndLogError(w, req, err, "receive message")
		return
	}
	writeJSON(w, http.StatusOK, api.ReceiveMessageResponse{Messages: msg})
}

// handleDeleteMessage handles DELETE /v1/queue/queues/{queue}/messages.
func (p *Provider) handleDeleteMessage(w http.ResponseWriter, req *http.Request) {
	queue, err := getRequiredURLParam(req, "queue")
	if err != nil {
		p.handleAndLogError(w, req, err, "delete message")
		return
	}

	var body api.DeleteMessageRequest
	if err = p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "delete message")
		return
	}

	if err = p.svc.Queue.DeleteMessage(req.Context(), queue, body.ReceiptHandle); err != nil {
		p.handleAndLogError(w, req, err, "delete message")
		return
	}

	p.publish(events.TypeDeleted, resourceMessage, queue)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Deleted"})
}

// handleCreatePrincipal handles POST /v1/iam/{users,roles,groups}.
func (p *Provider) handleCreatePrincipal(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body api.CreatePrincipalRequest
		if err := p.decodeRequestBody(req, &body); err != nil {
			p.handleAndLogError(w, req, err, "create "+kind)
			return
		}

		arn, err := p.svc.IAM.CreatePrincipal(req.Context(), kind, body.Name)
		if err != nil {
			p.handleAndLogError(w, req, err, "create "+kind)
			return
		}

		p.publish(events.TypeCreated, kind, body.Name)
		writeJSON(w, http.StatusOK, api.CreatePrincipalResponse{Status: "Created", Arn: arn})
	}
}

func (p *Provider) listPrincipals(w http.ResponseWriter, req *http.Request, kind string) ([]api.Principal, bool) {
	principals, err := p.svc.IAM.ListPrincipals(req.Context(), kind)
	if err != nil {
		p.handleAndLogError(w, req, err, "list "+kind+"s")
		return nil, false
	}
	return principals, true
}

// handleListUsers handles GET /v1/iam/users.
func (p *Provider) handleListUsers(w http.ResponseWriter, req *http.Request) {
	if users, ok := p.listPrincipals(w, req, services.KindUser); ok {
		writeJSON(w, http.StatusOK, api.UsersResponse{Users: users})
	}
}

// handleListRoles handles GET /v1/iam/roles.
func (p *Provider) handleListRoles(w http.ResponseWriter, req *http.Request) {
	if roles, ok := p.listPrincipals(w, req, services.KindRole); ok {
		writeJSON(w, http.StatusOK, api.RolesResponse{Roles: roles})
	}
}

// handleListGroups handles GET /v1/iam/groups.
func (p *Provider) handleListGroups(w http.ResponseWriter, req *http.Request) {
	if groups, ok := p.listPrincipals(w, req, services.KindGroup); ok {
		writeJSON(w, http.StatusOK, api.GroupsResponse{Groups: groups})
	}
}

// handleAttachUserPolicy handles POST /v1/iam/users/{user}/policy.
func (p *Provider) handleAttachUserPolicy(w http.ResponseWriter, req *http.Request) {
	user, err := getRequiredURLParam(req, "user")
	if err != nil {
		p.handleAndLogError(w, req, err, "attach policy")
		return
	}

	var body api.AttachPolicyRequest
	if err = p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "attach policy")
		return
	}

	if err = p.svc.IAM.AttachUserPolicy(req.Context(), user, body.PolicyDocument); err != nil {
		p.handleAndLogError(w, req, err, "attach policy")
		return
	}

	p.publish(events.TypeUpdated, services.KindUser, user)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Attached", Name: user})
}

// handleCheckPermission handles POST /v1/iam/check.
func (p *Provider) handleCheckPermission(w http.ResponseWriter, req *http.Request) {
	var body api.CheckPermissionRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "check permission")
		return
	}

	allowed, err := p.svc.IAM.CheckPermission(req.Context(), body.UserName, body.Action, body.Resource)
	if err != nil {
		p.handleAndLogError(w, req, err, "check permission")
		return
	}
	writeJSON(w, http.StatusOK, api.CheckPermissionResponse{Allowed: allowed})
}

// handleCreateLoadBalancer handles POST /v1/network/loadbalancers.
func (p *Provider) handleCreateLoadBalancer(w http.ResponseWriter, req *http.Request) {
	var body api.CreateLoadBalancerRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create load balancer")
		return
	}

	lb, err := p.svc.LB.CreateLoadBalancer(req.Context(), body.Name, body.Type)
	if err != nil {
		p.handleAndLogError(w, req, err, "create load balancer")
		return
	}

	p.publish(events.TypeCreated, resourceLoadBalancer, body.Name)
	writeJSON(w, http.StatusOK, lb)
}

// handleListLoadBalancers handles GET /v1/network/loadbalancers.
func (p *Provider) handleListLoadBalancers(w http.ResponseWriter, req *http.Request) {
	lbs, err := p.svc.LB.ListLoadBalancers(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list load balancers")
		return
	}
	writeJSON(w, http.StatusOK, api.LoadBalancersResponse{LoadBalancers: lbs})
}

// handleCreateTargetGroup handles POST /v1/network/targetgroups.
func (p *Provider) handleCreateTargetGroup(w http.ResponseWriter, req *http.Request) {
	var body api.CreateTargetGroupRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create target group")
		return
	}

	arn, err := p.svc.LB.CreateTargetGroup(req.Context(), body.Name, body.Port, body.Protocol)
	if err != nil {
		p.handleAndLogError(w, req, err, "create target group")
		return
	}

	p.publish(events.TypeCreated, resourceTargetGroup, arn)
	writeJSON(w, http.StatusOK, api.CreateTargetGroupResponse{TargetGroupArn: arn})
}

// handleRegisterTarget handles POST /v1/network/targetgroups/targets.
func (p *Provider) handleRegisterTarget(w http.ResponseWriter, req *http.Request) {
	var body api.RegisterTargetRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "register target")
		return
	}

	if err := p.svc.LB.RegisterTarget(req.Context(), body.TargetGroupArn, body.TargetID, body.Port); err != nil {
		p.handleAndLogError(w, req, err, "register target")
		return
	}

	p.publish(events.TypeUpdated, resourceTargetGroup, body.TargetGroupArn)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Registered", ID: body.TargetID})
}

// handleCreateListener handles POST /v1/network/listeners.
func (p *Provider) handleCreateListener(w http.ResponseWriter, req *http.Request) {
	var body api.CreateListenerRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create listener")
		return
	}

	arn, err := p.svc.LB.CreateListener(
		req.Context(), body.LoadBalancerName, body.Port, body.Protocol, body.TargetGroupArn)
	if err != nil {
		p.handleAndLogError(w, req, err, "create listener")
		return
	}

	p.publish(events.TypeCreated, resourceListener, arn)
	writeJSON(w, http.StatusOK, api.CreateListenerResponse{ListenerArn: arn})
}

// handleEKS handles POST /v1/eks/{action}. An empty body uses default names.
func (p *Provider) handleEKS(w http.ResponseWriter, req *http.Request) {
	action, err := getRequiredURLParam(req, "action")
	if err != nil {
		p.handleAndLogError(w, req, err, "handle EKS action")
		return
	}

	var body api.EKSRequest
	if decodeErr := json.NewDecoder(req.Body).Decode(&body); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		p.handleAndLogError(w, req, apperrors.ErrValidation("invalid request body", decodeErr), "handle EKS action")
		return
	}

	resp, err := p.svc.EKS.Handle(req.Context(), action, body)
	if err != nil {
		p.handleAndLogError(w, req, err, "handle EKS action")
		return
	}

	switch action {
	case services.ActionCreateCluster:
		p.publish(events.TypeCreated, resourceCluster, body.Name)
	case services.ActionDeleteCluster:
		p.publish(events.TypeDeleted, resourceCluster, body.Name)
	case services.ActionCreateNodegroup:
		p.publish(events.TypeCreated, resourceNodegroup, body.NodegroupName)
	case services.ActionDeleteNodegroup:
		p.publish(events.TypeDeleted, resourceNodegroup, body.NodegroupName)
	}
	writeJSON(w, http.StatusOK, resp)
}
