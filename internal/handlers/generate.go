package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sitesmith/sitesmith/internal/codegen"
	"github.com/sitesmith/sitesmith/internal/models"
)

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req codegen.GenerateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.codegen.Generate(r.Context(), req)
	switch {
	case err == nil:
		h.writeJSON(w, result)
	case errors.Is(err, codegen.ErrMissingPrompt):
		h.writeError(w, http.StatusBadRequest, "MISSING_PROMPT", "Prompt is required")
	case errors.Is(err, codegen.ErrInvalidStyle):
		h.writeError(w, http.StatusBadRequest, "INVALID_STYLE", err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, "GENERATION_FAILED", err.Error())
	}
}

func (h *Handler) HandleAddPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageName string `json:"pageName"`
		Prompt   string `json:"prompt"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.codegen.AddPage(r.Context(), req.Prompt, req.PageName)
	switch {
	case err == nil:
		h.writeJSON(w, result)
	case errors.Is(err, codegen.ErrMissingPageName):
		h.writeError(w, http.StatusBadRequest, "MISSING_PAGE_NAME", "Page name is required")
	default:
		h.writeError(w, http.StatusInternalServerError, "PAGE_GENERATION_FAILED", err.Error())
	}
}

func (h *Handler) HandleVoiceModification(w http.ResponseWriter, r *http.Request) {
	var req codegen.VoiceRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.codegen.VoiceModify(r.Context(), req)
	switch {
	case err == nil:
		h.writeJSON(w, result)
	case errors.Is(err, codegen.ErrMissingTranscription):
		h.writeError(w, http.StatusBadRequest, "MISSING_TRANSCRIPTION", "Voice transcription is required")
	case errors.Is(err, codegen.ErrMissingCurrentCode):
		h.writeError(w, http.StatusBadRequest, "MISSING_CURRENT_CODE", "Current code is required")
	case errors.Is(err, codegen.ErrUnknownIntent):
		h.writeError(w, http.StatusBadRequest, "UNKNOWN_INTENT", "Intent could not be determined from voice transcription")
	default:
		h.writeError(w, http.StatusInternalServerError, "VOICE_MODIFICATION_FAILED", err.Error())
	}
}

func (h *Handler) HandleCheckAddress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_PROMPT", "Prompt is required")
		return
	}

	ok := codegen.IsAddressAndMapIntent(req.Prompt)
	slog.Debug("Checked address intent", "result", ok)
	h.writeJSON(w, map[string]bool{"isAddressAndMapIntent": ok})
}

func (h *Handler) HandleAddImage(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxJSONBody {
		h.writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body too large")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "ADD_IMAGE_FAILED", "Failed to read form: "+err.Error())
		return
	}

	currentCode := r.FormValue("currentCode")
	if currentCode == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_CURRENT_CODE", "Current code is required")
		return
	}
	pagePath := r.FormValue("pagePath")

	code, images := h.images.ReplacePageImages(r.Context(), currentCode, pagePath)
	if images == nil {
		images = []models.ImageMeta{}
	}
	slog.Info("Images replaced", "page", pagePath, "count", len(images))

	h.writeJSON(w, map[string]any{
		"code":   code,
		"images": images,
	})
}
