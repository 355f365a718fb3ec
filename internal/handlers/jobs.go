package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/meanmdevs/stitching/internal/engine"
	"github.com/meanmdevs/stitching/internal/registry"
	"github.com/meanmdevs/stitching/internal/scheduler"
)

type applyFilterRequest struct {
	FileID    string   `json:"file_id"`
	Filter    string   `json:"filter"`
	Intensity *float64 `json:"intensity"`
}

type statusResponse struct {
	Status   registry.State `json:"status"`
	Progress *int           `json:"progress,omitempty"`
	Preview  string         `json:"preview,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// handleApplyFilter handles POST /api/apply-filter. Parameters are validated
// synchronously; a rejected request never creates a job.
func (h *Handler) handleApplyFilter(w http.ResponseWriter, r *http.Request) {
	var req applyFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "file_id is required")
		return
	}
	if req.Filter == "" {
		writeError(w, http.StatusBadRequest, "filter is required")
		return
	}
	intensity := 1.0
	if req.Intensity != nil {
		intensity = *req.Intensity
	}

	job, err := h.sched.Submit(r.Context(), scheduler.Params{
		Kind:      engine.KindFilter,
		Filter:    req.Filter,
		Intensity: intensity,
		InputID:   req.FileID,
	})
	if err != nil {
		var verr *scheduler.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		log.Printf("apply-filter submit failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if h.tracker != nil {
		if seen, terr := h.tracker.Record(r.Context(), req.FileID, req.Filter, intensity); terr != nil {
			log.Printf("[%s] submission tracking failed: %v", job.ID, terr)
		} else if seen > 1 {
			log.Printf("[%s] file %s submitted %d times", job.ID, req.FileID, seen)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  job.ID,
	})
}

// handleStatus handles GET /api/status/{job_id}: a pure read of the registry.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, err := h.sched.Registry().Get(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := statusResponse{Status: job.State}
	if job.State != registry.StateQueued {
		progress := job.Progress
		resp.Progress = &progress
	}
	switch job.State {
	case registry.StateComplete:
		resp.Preview = job.Preview
	case registry.StateError:
		resp.Error = job.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownload handles GET /api/download/{job_id}.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, err := h.sched.Registry().Get(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.State != registry.StateComplete {
		writeError(w, http.StatusNotFound, "result not ready")
		return
	}

	data, art, err := h.artifacts.Get(r.Context(), job.ResultArtifactID)
	if err != nil {
		writeError(w, http.StatusNotFound, "result no longer available")
		return
	}

	contentType := art.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	filename := "stitched_image.jpg"
	if job.Kind == registry.KindFilter {
		filename = fmt.Sprintf("filtered_%s.jpg", job.Filter)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
