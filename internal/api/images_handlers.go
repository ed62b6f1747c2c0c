package api

import (
	"net/http"
	"strings"

	"github.com/launchkit/launchkit/internal/imagegen"
)

const maxBatchSize = 10

// GenerateImage produces one image and returns its CDN URL
func (h *Handlers) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image generation not configured")
		return
	}

	var req imagegen.Request
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.images.Generate(r.Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "required") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "image generation failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	Requests []imagegen.Request `json:"requests"`
}

// GenerateImageBatch produces a set of images, reporting per-key outcomes
func (h *Handlers) GenerateImageBatch(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image generation not configured")
		return
	}

	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests is required")
		return
	}
	if len(req.Requests) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "too many requests in batch")
		return
	}

	results := h.images.GenerateBatch(r.Context(), req.Requests)
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}
