package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sitesmith/sitesmith/internal/maps"
	"github.com/sitesmith/sitesmith/internal/models"
)

func (h *Handler) HandleAddMap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentCode    string             `json:"currentCode"`
		MapDescription string             `json:"mapDescription"`
		Lat            *float64           `json:"lat"`
		Lng            *float64           `json:"lng"`
		Zoom           *int               `json:"zoom"`
		Markers        []models.MapMarker `json:"markers"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentCode == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_CURRENT_CODE", "Current code is required")
		return
	}
	if h.mapsAPIKey == "" {
		h.writeError(w, http.StatusInternalServerError, "MISSING_API_KEY", "Google Maps API key is not configured")
		return
	}

	widget := maps.Widget{Lat: maps.DefaultLat, Lng: maps.DefaultLng, Zoom: maps.DefaultZoom, Markers: req.Markers}
	if req.Lat != nil {
		widget.Lat = *req.Lat
	}
	if req.Lng != nil {
		widget.Lng = *req.Lng
	}
	if req.Zoom != nil && *req.Zoom > 0 {
		widget.Zoom = *req.Zoom
	}
	if widget.Markers == nil {
		widget.Markers = []models.MapMarker{}
	}

	code, err := maps.Embed(req.CurrentCode, h.mapsAPIKey, widget)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "ADD_MAP_FAILED", err.Error())
		return
	}
	slog.Debug("Embedded map", "description", req.MapDescription, "lat", widget.Lat, "lng", widget.Lng, "markers", len(widget.Markers))

	h.writeJSON(w, map[string]any{
		"code": code,
		"map":  widget,
	})
}

func (h *Handler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ADDRESS", "Address is required")
		return
	}
	if h.geocoder == nil {
		h.writeError(w, http.StatusInternalServerError, "MISSING_API_KEY", "Google Maps API key is not configured")
		return
	}

	coords, err := h.geocoder.Geocode(r.Context(), req.Address)
	switch {
	case err == nil:
		h.writeJSON(w, coords)
	case errors.Is(err, maps.ErrNoResults):
		h.writeError(w, http.StatusNotFound, "NO_COORDINATES_FOUND", "No coordinates found for this address")
	default:
		h.writeError(w, http.StatusInternalServerError, "GEOCODE_FAILED", err.Error())
	}
}

func (h *Handler) HandleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		h.writeError(w, http.StatusBadRequest, "MISSING_COORDINATES", "Coordinates (lat, lng) are required")
		return
	}
	if h.geocoder == nil {
		h.writeError(w, http.StatusInternalServerError, "MISSING_API_KEY", "Google Maps API key is not configured")
		return
	}

	addr, err := h.geocoder.ReverseGeocode(r.Context(), *req.Lat, *req.Lng)
	switch {
	case err == nil:
		h.writeJSON(w, addr)
	case errors.Is(err, maps.ErrNoResults):
		h.writeError(w, http.StatusNotFound, "NO_ADDRESS_FOUND", "No address found for these coordinates")
	default:
		h.writeError(w, http.StatusInternalServerError, "REVERSE_GEOCODE_FAILED", err.Error())
	}
}
