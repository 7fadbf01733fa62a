// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/courtsight/courtsight/internal/app"
	"github.com/courtsight/courtsight/internal/domain/model"
)

// analysisRequest mirrors the request schema for POST /analyses.
type analysisRequest struct {
	AnalysisID string                `json:"analysis_id"`
	Detections model.DetectionBundle `json:"detections"`
}

func (a analysisRequest) validate() error {
	switch {
	case a.Detections.Duration <= 0:
		return errors.New("detections.duration must be positive")
	case a.Detections.FrameRate < 0:
		return errors.New("detections.frame_rate must not be negative")
	}
	return nil
}

// AnalysesHandler handles analysis submission and result reads.
type AnalysesHandler struct {
	deps Dependencies
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies) *AnalysesHandler {
	return &AnalysesHandler{deps: deps}
}

// HandleSubmit handles POST /analyses requests.
func (h *AnalysesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	id, duplicate, err := h.deps.Submit(r.Context(), req.AnalysisID, req.Detections)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{AnalysisID: id, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{AnalysisID: id, Status: "accepted", Duplicate: false})
}

// HandleGet dispatches GET /analyses/{id}, GET /analyses/{id}/events and
// GET /analyses/{id}/highlights.
func (h *AnalysesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/analyses/")
	id, resource, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch resource {
	case "":
		h.handleStatus(w, r, id)
	case "events":
		h.handleEvents(w, r, id)
	case "highlights":
		h.handleHighlights(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *AnalysesHandler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	st, err := h.deps.Status(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleEvents serves the fused timeline, optionally windowed with
// ?from=SECONDS&to=SECONDS.
func (h *AnalysesHandler) handleEvents(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")

	if fromStr == "" && toStr == "" {
		events, err := h.deps.Events(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	from, err := parseSeconds(fromStr, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	to, err := parseSeconds(toStr, maxTimestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if from > to {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("from must not exceed to"))
		return
	}

	events, err := h.deps.EventsInRange(r.Context(), id, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleHighlights serves highlight clips with optional
// ?merge=true&top=N&team=&player=&type= shaping.
func (h *AnalysesHandler) handleHighlights(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()

	query := service.HighlightQuery{
		TeamID:    q.Get("team"),
		PlayerID:  q.Get("player"),
		EventType: q.Get("type"),
	}
	if mergeStr := q.Get("merge"); mergeStr != "" {
		merge, err := strconv.ParseBool(mergeStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("merge must be a boolean"))
			return
		}
		query.Merge = merge
	}
	if topStr := q.Get("top"); topStr != "" {
		top, err := strconv.Atoi(topStr)
		if err != nil || top < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("top must be a positive integer"))
			return
		}
		query.Top = top
	}

	clips, err := h.deps.Highlights(r.Context(), id, query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clips)
}

// maxTimestamp is an effectively unbounded upper range limit in seconds.
const maxTimestamp = 1e12

func parseSeconds(s string, fallback float64) (float64, error) {
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, errors.New("timestamps must be non-negative seconds")
	}
	return v, nil
}
