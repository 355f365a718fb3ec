// Package handlers is the HTTP surface: a thin translation layer over the
// artifact store, the job scheduler and the filter catalog.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/meanmdevs/stitching/internal/catalog"
	"github.com/meanmdevs/stitching/internal/dedupe"
	"github.com/meanmdevs/stitching/internal/engine"
	"github.com/meanmdevs/stitching/internal/metrics"
	"github.com/meanmdevs/stitching/internal/scheduler"
	"github.com/meanmdevs/stitching/internal/store"
)

// Handler holds dependencies for the HTTP handlers.
type Handler struct {
	artifacts store.Store
	sched     *scheduler.Scheduler
	stitcher  *engine.Stitcher
	tracker   *dedupe.Tracker // nil when submission tracking is disabled
	maxUpload int64
}

// New creates the handler set. tracker may be nil.
func New(artifacts store.Store, sched *scheduler.Scheduler, stitcher *engine.Stitcher, tracker *dedupe.Tracker, maxUpload int64) *Handler {
	return &Handler{
		artifacts: artifacts,
		sched:     sched,
		stitcher:  stitcher,
		tracker:   tracker,
		maxUpload: maxUpload,
	}
}

// Routes builds the router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/upload", h.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/filters", h.handleFilters).Methods(http.MethodGet)
	r.HandleFunc("/api/apply-filter", h.handleApplyFilter).Methods(http.MethodPost)
	r.HandleFunc("/api/status/{job_id}", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/download/{job_id}", h.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/stitch", h.handleStitch).Methods(http.MethodPost)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/info", h.handleInfo).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return r
}

// handleFilters handles GET /api/filters.
func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

// handleHealth handles GET /health. It reports the presence of the external
// engine dependencies without attempting a transform.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	binaryExists, mapExists := h.stitcher.Healthy()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"binary_exists":  binaryExists,
		"mls_map_exists": mapExists,
	})
}

// handleInfo handles GET /info.
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "Fisheye Stitcher",
		"version":     "1.0.0",
		"description": "Web service for stitching dual fisheye images and applying enhancement filters",
		"endpoints": map[string]string{
			"POST /api/upload":            "Upload an image",
			"GET /api/filters":            "List the filter catalog",
			"POST /api/apply-filter":      "Apply a filter asynchronously",
			"GET /api/status/{job_id}":    "Poll job status",
			"GET /api/download/{job_id}":  "Download a job result",
			"POST /stitch":                "Stitch a dual fisheye image synchronously",
			"GET /health":                 "Health check",
			"GET /info":                   "Service information",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
