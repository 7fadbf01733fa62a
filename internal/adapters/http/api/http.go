// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/courtsight/courtsight/internal/app"
	"github.com/courtsight/courtsight/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the app implementation.
type Dependencies interface {
	// Submit registers a bundle for analysis. Idempotent on analysis id.
	Submit(ctx context.Context, analysisID string, bundle model.DetectionBundle) (id string, duplicate bool, err error)

	// Read operations expose analysis state and results.
	Status(ctx context.Context, analysisID string) (service.Status, error)
	Events(ctx context.Context, analysisID string) ([]model.GameEvent, error)
	EventsInRange(ctx context.Context, analysisID string, from, to float64) ([]model.GameEvent, error)
	Highlights(ctx context.Context, analysisID string, q service.HighlightQuery) ([]model.HighlightClip, error)

	// Liveness.
	Ready() bool
	QueueDepth(ctx context.Context) int
}

// Server wires HTTP routes for the business API.
type Server struct {
	analysesHandler *AnalysesHandler
	healthHandler   *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		analysesHandler: NewAnalysesHandler(deps),
		healthHandler:   NewHealthHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.healthHandler.HandleReady, "readyz"))
	mux.HandleFunc("/analyses", MetricsMiddleware(s.analysesHandler.HandleSubmit, "analyses"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.analysesHandler.HandleGet, "analyses"))
}

type ackResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates app-layer errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownAnalysis):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrResultPending):
		writeError(w, http.StatusConflict, "pending", err)
	case errors.Is(err, service.ErrAnalysisFailed):
		writeError(w, http.StatusInternalServerError, "analysis_failed", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
