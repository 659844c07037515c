package provider

import (
	"net/http"

	"github.com/cloudemu/zero/internal/api"
	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/events"
)

const (
	resourceWorkload = "workload"
	resourceVolume   = "volume"
	resourceNetwork  = "network"
)

// handleHealth returns a simple health check response.
func (p *Provider) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Version: *constants.GetVersion(),
	})
}

// handleFallback answers every path no route claims.
func (p *Provider) handleFallback(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: constants.ProductName + " API v1"})
}

// handleListNodes handles GET /v1/nodes.
func (p *Provider) handleListNodes(w http.ResponseWriter, req *http.Request) {
	nodes, err := p.engine.ListNodes(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list nodes")
		return
	}
	writeJSON(w, http.StatusOK, api.NodesResponse{Nodes: nodes})
}

// handleNodeStats handles GET /v1/nodes/stats.
func (p *Provider) handleNodeStats(w http.ResponseWriter, req *http.Request) {
	stats, err := p.engine.Compute.GetStats(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "get node stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCreateWorkload handles POST /v1/workloads.
func (p *Provider) handleCreateWorkload(w http.ResponseWriter, req *http.Request) {
	var body api.CreateWorkloadRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create workload")
		return
	}

	status, err := p.engine.Compute.CreateWorkload(
		req.Context(), body.ID, body.Image, constants.DefaultWorkloadCPU, constants.DefaultWorkloadMemoryMB)
	if err != nil {
		p.handleAndLogError(w, req, err, "create workload")
		return
	}

	p.requestLogger(req).Info("workload created", "id", body.ID, "image", body.Image)
	p.publish(events.TypeCreated, resourceWorkload, body.ID)
	writeJSON(w, http.StatusOK, status)
}

// handleDeleteWorkload handles DELETE /v1/workloads.
func (p *Provider) handleDeleteWorkload(w http.ResponseWriter, req *http.Request) {
	var body api.DeleteWorkloadRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "delete workload")
		return
	}

	if err := p.engine.Compute.DeleteWorkload(req.Context(), body.ID); err != nil {
		p.handleAndLogError(w, req, err, "delete workload")
		return
	}

	p.publish(events.TypeDeleted, resourceWorkload, body.ID)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Deleted", ID: body.ID})
}

// handleListWorkloads handles GET /v1/workloads.
func (p *Provider) handleListWorkloads(w http.ResponseWriter, req *http.Request) {
	workloads, err := p.engine.Compute.ListWorkloads(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list workloads")
		return
	}
	writeJSON(w, http.StatusOK, api.WorkloadsResponse{Workloads: workloads})
}

// handleGetWorkload handles GET /v1/workloads/{id}.
func (p *Provider) handleGetWorkload(w http.ResponseWriter, req *http.Request) {
	id, err := getRequiredURLParam(req, "id")
	if err != nil {
		p.handleAndLogError(w, req, err, "get workload")
		return
	}

	status, err := p.engine.Compute.GetWorkloadStatus(req.Context(), id)
	if err != nil {
		p.handleAndLogError(w, req, err, "get workload")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCreateVolume handles POST /v1/volumes.
func (p *Provider) handleCreateVolume(w http.ResponseWriter, req *http.Request) {
	var body api.CreateVolumeRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create volume")
		return
	}
	if body.SizeGB == 0 {
		body.SizeGB = constants.DefaultVolumeSizeGB
	}

	status, err := p.engine.Storage.CreateVolume(req.Context(), body.ID, body.SizeGB)
	if err != nil {
		p.handleAndLogError(w, req, err, "create volume")
		return
	}

	p.publish(events.TypeCreated, resourceVolume, body.ID)
	writeJSON(w, http.StatusOK, status)
}

// handleListVolumes handles GET /v1/volumes.
func (p *Provider) handleListVolumes(w http.ResponseWriter, req *http.Request) {
	volumes, err := p.engine.Storage.ListVolumes(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list volumes")
		return
	}
	writeJSON(w, http.StatusOK, api.VolumesResponse{Volumes: volumes})
}

// handleDeleteVolume handles DELETE /v1/volumes/{id}.
func (p *Provider) handleDeleteVolume(w http.ResponseWriter, req *http.Request) {
	id, err := getRequiredURLParam(req, "id")
	if err != nil {
		p.handleAndLogError(w, req, err, "delete volume")
		return
	}

	if err = p.engine.Storage.DeleteVolume(req.Context(), id); err != nil {
		p.handleAndLogError(w, req, err, "delete volume")
		return
	}

	p.publish(events.TypeDeleted, resourceVolume, id)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Deleted", ID: id})
}

// handleCreateNetwork handles POST /v1/networks.
func (p *Provider) handleCreateNetwork(w http.ResponseWriter, req *http.Request) {
	var body api.CreateNetworkRequest
	if err := p.decodeRequestBody(req, &body); err != nil {
		p.handleAndLogError(w, req, err, "create network")
		return
	}
	if body.CIDR == "" {
		body.CIDR = constants.DefaultNetworkCIDR
	}

	status, err := p.engine.Network.CreateNetwork(req.Context(), body.ID, body.CIDR)
	if err != nil {
		p.handleAndLogError(w, req, err, "create network")
		return
	}

	p.publish(events.TypeCreated, resourceNetwork, body.ID)
	writeJSON(w, http.StatusOK, status)
}

// handleListNetworks handles GET /v1/networks.
func (p *Provider) handleListNetworks(w http.ResponseWriter, req *http.Request) {
	networks, err := p.engine.Network.ListNetworks(req.Context())
	if err != nil {
		p.handleAndLogError(w, req, err, "list networks")
		return
	}
	writeJSON(w, http.StatusOK, api.NetworksResponse{Networks: networks})
}

// handleDeleteNetwork handles DELETE /v1/networks/{id}.
func (p *Provider) handleDeleteNetwork(w http.ResponseWriter, req *http.Request) {
	id, err := getRequiredURLParam(req, "id")
	if err != nil {
		p.handleAndLogError(w, req, err, "delete network")
		return
	}

	if err = p.engine.Network.DeleteNetwork(req.Context(), id); err != nil {
		p.handleAndLogError(w, req, err, "delete network")
		return
	}

	p.publish(events.TypeDeleted, resourceNetwork, id)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "Deleted", ID: id})
}
