// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// ManifestHandler serves the content manifest.
type ManifestHandler struct {
	deps Dependencies
}

// NewManifestHandler creates a new manifest handler.
func NewManifestHandler(deps Dependencies) *ManifestHandler {
	return &ManifestHandler{deps: deps}
}

// HandleGetManifest handles GET /api/manifest requests.
func (h *ManifestHandler) HandleGetManifest(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Manifest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
