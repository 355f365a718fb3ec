package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log"
	"net/http"

	"github.com/meanmdevs/stitching/internal/engine"
	"github.com/meanmdevs/stitching/internal/metrics"
	"github.com/meanmdevs/stitching/internal/registry"
	"github.com/meanmdevs/stitching/internal/scheduler"
	"github.com/meanmdevs/stitching/internal/store"
)

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// readUpload extracts and validates the multipart "image" part. It returns
// the bytes and the stored artifact metadata, or writes the error response
// itself and returns ok=false.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, meta store.Meta, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			writeError(w, http.StatusBadRequest, "no image file provided")
		} else {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds the %d MB limit", h.maxUpload>>20))
		}
		return nil, store.Meta{}, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image exceeds the %d MB limit", h.maxUpload>>20))
		return nil, store.Meta{}, false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "no image file selected")
		return nil, store.Meta{}, false
	}

	contentType := http.DetectContentType(data)
	if !allowedContentTypes[contentType] {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %s", contentType))
		return nil, store.Meta{}, false
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image format")
		return nil, store.Meta{}, false
	}

	meta = store.Meta{
		Filename:    header.Filename,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	return data, meta, true
}

// handleUpload handles POST /api/upload.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, meta, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	art, err := h.artifacts.Put(r.Context(), store.KindOriginal, data, meta)
	if err != nil {
		log.Printf("upload store failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}
	metrics.UploadsTotal.Inc()
	metrics.UploadBytesTotal.Add(float64(len(data)))
	log.Printf("uploaded %s: %s %dx%d %d bytes", art.ID, meta.Filename, meta.Width, meta.Height, len(data))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"file_id":  art.ID,
		"filename": art.Filename,
		"width":    art.Width,
		"height":   art.Height,
		"size":     art.Size,
		"preview":  engine.Preview(data),
	})
}

// handleStitch handles POST /stitch: the synchronous flow. The stitch runs
// through the same job infrastructure as filters, but the handler waits for
// the terminal state and returns the image bytes directly.
func (h *Handler) handleStitch(w http.ResponseWriter, r *http.Request) {
	data, meta, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	if err := engine.ValidateStitchInput(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	art, err := h.artifacts.Put(r.Context(), store.KindOriginal, data, meta)
	if err != nil {
		log.Printf("stitch upload store failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	job, err := h.sched.Submit(r.Context(), scheduler.Params{
		Kind:    engine.KindStitch,
		InputID: art.ID,
	})
	if err != nil {
		log.Printf("stitch submit failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to start stitching")
		return
	}

	final, err := h.sched.Registry().Wait(r.Context(), job.ID)
	if err != nil {
		// The client went away; the job keeps running in the background.
		writeError(w, http.StatusInternalServerError, "request canceled while stitching")
		return
	}
	if final.State == registry.StateError {
		writeError(w, http.StatusInternalServerError, final.Error)
		return
	}

	out, _, err := h.artifacts.Get(r.Context(), final.ResultArtifactID)
	if err != nil {
		writeError(w, http.StatusNotFound, "stitched image no longer available")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="stitched_image.jpg"`)
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}
