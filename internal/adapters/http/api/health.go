// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/courtsight/courtsight/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health and readiness requests.
type HealthHandler struct {
	deps Dependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HandleHealth handles GET /healthz requests by serving the Prometheus
// metrics from our custom registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

type readyResponse struct {
	Status     string `json:"status"`
	QueueDepth int    `json:"queue_depth"`
}

// HandleReady handles GET /readyz requests.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if !h.deps.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{
		Status:     "ok",
		QueueDepth: h.deps.QueueDepth(r.Context()),
	})
}
