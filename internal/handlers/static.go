package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/sitesmith/sitesmith/internal/storage"
)

// HandleStatic serves files from the content root.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	filepath := r.PathValue("path")
	if filepath == "" {
		filepath = "index.html"
	}

	data, err := h.store.Read(r.Context(), filepath)
	switch {
	case errors.Is(err, storage.ErrUnauthorizedPath):
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	case errors.Is(err, storage.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, "STATIC_READ_FAILED", err.Error())
		return
	}

	// ServeContent sets the content type from the extension
	http.ServeContent(w, r, filepath, time.Time{}, bytes.NewReader(data))
}
