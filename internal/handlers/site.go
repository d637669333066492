package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/site"
	"github.com/sitesmith/sitesmith/internal/storage"
)

func (h *Handler) HandleAddFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderName string          `json:"folderName"`
		Pages      json.RawMessage `json:"pages"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.FolderName == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_FOLDER_NAME", "Folder name is required")
		return
	}

	var pages map[string]string
	if err := json.Unmarshal(req.Pages, &pages); err != nil || len(pages) == 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_PAGES", "Pages are required and must be a dictionary")
		return
	}

	result, err := h.site.AddFolder(r.Context(), req.FolderName, pages)
	switch {
	case err == nil:
		h.writeJSON(w, result)
	case errors.Is(err, site.ErrMissingFolderName):
		h.writeError(w, http.StatusBadRequest, "MISSING_FOLDER_NAME", "Folder name is required")
	case errors.Is(err, site.ErrInvalidPages):
		h.writeError(w, http.StatusBadRequest, "INVALID_PAGES", "Pages are required and must be a dictionary")
	case errors.Is(err, storage.ErrUnauthorizedPath):
		h.writeError(w, http.StatusBadRequest, "INVALID_PATH", "Unauthorized path")
	default:
		h.writeError(w, http.StatusInternalServerError, "FOLDER_CREATION_FAILED", err.Error())
	}
}

func (h *Handler) HandleSavePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PagePath string `json:"pagePath"`
		Code     string `json:"code"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.site.SavePage(r.Context(), req.PagePath, req.Code)
	switch {
	case err == nil:
		h.writeJSON(w, map[string]string{
			"message":  fmt.Sprintf("Page '%s' updated successfully", req.PagePath),
			"pagePath": saved,
		})
	case errors.Is(err, site.ErrMissingPagePath):
		h.writeError(w, http.StatusBadRequest, "MISSING_PAGE_PATH", "Page path is required")
	case errors.Is(err, site.ErrMissingCode):
		h.writeError(w, http.StatusBadRequest, "MISSING_CODE", "Updated code is required")
	case errors.Is(err, storage.ErrUnauthorizedPath):
		h.writeError(w, http.StatusBadRequest, "INVALID_PATH", "Unauthorized path")
	default:
		h.writeError(w, http.StatusInternalServerError, "SAVE_PAGE_FAILED", err.Error())
	}
}

func (h *Handler) HandleHierarchy(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.site.Hierarchy(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "HIERARCHY_FETCH_FAILED", err.Error())
		return
	}
	h.writeJSON(w, map[string]any{"hierarchy": nodes})
}

func (h *Handler) HandleUpdateHierarchy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hierarchy []models.HierarchyNode `json:"hierarchy"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	moved, err := h.site.UpdateHierarchy(r.Context(), req.Hierarchy)
	switch {
	case err == nil:
		h.writeJSON(w, map[string]any{"message": "Hierarchy updated successfully", "moved": moved})
	case errors.Is(err, site.ErrMissingHierarchy):
		h.writeError(w, http.StatusBadRequest, "MISSING_HIERARCHY", "Hierarchy data required")
	case errors.Is(err, storage.ErrUnauthorizedPath):
		h.writeError(w, http.StatusBadRequest, "INVALID_PATH", "Unauthorized path")
	default:
		h.writeError(w, http.StatusInternalServerError, "HIERARCHY_UPDATE_FAILED", err.Error())
	}
}

func (h *Handler) HandleLivePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	content, err := h.site.ReadPage(r.Context(), req.Path)
	switch {
	case err == nil:
		h.writeJSON(w, map[string]string{
			"content": content,
			"message": "Live Preview content updated successfully",
		})
	case errors.Is(err, site.ErrMissingFilePath):
		h.writeError(w, http.StatusBadRequest, "MISSING_FILE_PATH", "File path is required")
	case errors.Is(err, site.ErrInvalidFilePath):
		h.writeError(w, http.StatusBadRequest, "INVALID_FILE_PATH", "Invalid file path")
	default:
		h.writeError(w, http.StatusInternalServerError, "LIVE_PREVIEW_UPDATE_FAILED", err.Error())
	}
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, http.StatusNotFound, "HISTORY_UNAVAILABLE", "Modification history is not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.history.List(r.Context(), r.URL.Query().Get("pagePath"), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "HISTORY_FETCH_FAILED", err.Error())
		return
	}
	h.writeJSON(w, map[string]any{"history": entries})
}
