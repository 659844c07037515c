package provider

import (
	"net/http"

	"github.com/cloudemu/zero/internal/constants"
	"github.com/cloudemu/zero/internal/services"

	"github.com/go-chi/chi/v5"
)

func (p *Provider) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(setContentTypeJSON)

	r.NotFound(p.handleFallback)
	r.MethodNotAllowed(p.handleFallback)

	r.Route(constants.APIPrefix, func(r chi.Router) {
		r.Get("/health", p.handleHealth)

		r.Get("/nodes", p.handleListNodes)
		r.Get("/nodes/stats", p.handleNodeStats)

		r.Route("/workloads", func(r chi.Router) {
			r.Post("/", p.handleCreateWorkload)
			r.Delete("/", p.handleDeleteWorkload)
			r.Get("/", p.handleListWorkloads)
			r.Get("/{id}", p.handleGetWorkload)
		})

		r.Route("/volumes", func(r chi.Router) {
			r.Post("/", p.handleCreateVolume)
			r.Get("/", p.handleListVolumes)
			r.Delete("/{id}", p.handleDeleteVolume)
		})

		r.Route("/networks", func(r chi.Router) {
			r.Post("/", p.handleCreateNetwork)
			r.Get("/", p.handleListNetworks)
			r.Delete("/{id}", p.handleDeleteNetwork)
		})

		r.Route("/store/buckets", func(r chi.Router) {
			r.Post("/", p.handleCreateBucket)
			r.Get("/", p.handleListBuckets)
		})

		r.Route("/db/tables", func(r chi.Router) {
			r.Post("/", p.handleCreateTable)
			r.Get("/", p.handleListTables)
			r.Post("/{table}/items", p.handlePutItem)
			r.Get("/{table}/items/{pk}", p.handleGetItem)
		})

		r.Route("/func/functions", func(r chi.Router) {
			r.Post("/", p.handleCreateFunction)
			r.Get("/", p.handleListFunctions)
			r.Post("/{name}/invocations", p.handleInvokeFunction)
		})

		r.Route("/queue/queues", func(r chi.Router) {
			r.Post("/", p.handleCreateQueue)
			r.Get("/", p.handleListQueues)
			r.Post("/{queue}/messages", p.handleSendMessage)
			r.Delete("/{queue}/messages", p.handleDeleteMessage)
			r.Post("/{queue}/receive", p.handleReceiveMessage)
		})

		r.Route("/iam", func(r chi.Router) {
			r.Post("/users", p.handleCreatePrincipal(services.KindUser))
			r.Get("/users", p.handleListUsers)
			r.Post("/users/{user}/policy", p.handleAttachUserPolicy)
			r.Post("/roles", p.handleCreatePrincipal(services.KindRole))
			r.Get("/roles", p.handleListRoles)
			r.Post("/groups", p.handleCreatePrincipal(services.KindGroup))
			r.Get("/groups", p.handleListGroups)
			r.Post("/check", p.handleCheckPermission)
		})

		r.Route("/network", func(r chi.Router) {
			r.Post("/loadbalancers", p.handleCreateLoadBalancer)
			r.Get("/loadbalancers", p.handleListLoadBalancers)
			r.Post("/targetgroups", p.handleCreateTargetGroup)
			r.Post("/targetgroups/targets", p.handleRegisterTarget)
			r.Post("/listeners", p.handleCreateListener)
		})

		r.Post("/eks/{action}", p.handleEKS)
	})

	return r
}

// setContentTypeJSON sets Content-Type to application/json for all responses.
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
		next.ServeHTTP(w, req)
	})
}
