package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sitesmith/sitesmith/internal/codegen"
	"github.com/sitesmith/sitesmith/internal/maps"
	"github.com/sitesmith/sitesmith/internal/metrics"
	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/site"
	"github.com/sitesmith/sitesmith/internal/storage"
)

const (
	maxJSONBody  = 10 << 20
	maxAudioBody = 32 << 20
)

// PageImageRewriter resolves the placeholder images of a generated page
type PageImageRewriter interface {
	ReplacePageImages(ctx context.Context, code, pagePath string) (string, []models.ImageMeta)
}

// Transcriber converts uploaded audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// HistoryLister reads recorded modifications
type HistoryLister interface {
	List(ctx context.Context, pagePath string, limit int) ([]models.HistoryEntry, error)
}

// Options wires the services behind the HTTP surface. Geocoder, History
// and Preview may be nil; their routes then report the feature as unavailable.
type Options struct {
	Codegen    *codegen.Service
	Images     PageImageRewriter
	Speech     Transcriber
	Site       *site.Service
	Store      storage.Store
	Geocoder   maps.Geocoder
	MapsAPIKey string
	History    HistoryLister
	Preview    http.Handler
	CORSOrigin string
}

type Handler struct {
	codegen    *codegen.Service
	images     PageImageRewriter
	speech     Transcriber
	site       *site.Service
	store      storage.Store
	geocoder   maps.Geocoder
	mapsAPIKey string
	history    HistoryLister
	preview    http.Handler
	corsOrigin string
}

func New(opts Options) *Handler {
	return &Handler{
		codegen:    opts.Codegen,
		images:     opts.Images,
		speech:     opts.Speech,
		site:       opts.Site,
		store:      opts.Store,
		geocoder:   opts.Geocoder,
		mapsAPIKey: opts.MapsAPIKey,
		history:    opts.History,
		preview:    opts.Preview,
		corsOrigin: opts.CORSOrigin,
	}
}

// Routes returns the full HTTP surface wrapped in the middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate", h.HandleGenerate)
	mux.HandleFunc("POST /api/add-image", h.HandleAddImage)
	mux.HandleFunc("POST /api/voice-modification", h.HandleVoiceModification)
	mux.HandleFunc("POST /api/transcribe", h.HandleTranscribe)
	mux.HandleFunc("POST /api/add-folder", h.HandleAddFolder)
	mux.HandleFunc("POST /api/add-page", h.HandleAddPage)
	mux.HandleFunc("POST /api/save-page", h.HandleSavePage)
	mux.HandleFunc("GET /api/hierarchy", h.HandleHierarchy)
	mux.HandleFunc("POST /api/update-hierarchy", h.HandleUpdateHierarchy)
	mux.HandleFunc("POST /api/live-preview", h.HandleLivePreview)
	mux.HandleFunc("POST /api/add-map", h.HandleAddMap)
	mux.HandleFunc("POST /api/geocode", h.HandleGeocode)
	mux.HandleFunc("POST /api/reverse-geocode", h.HandleReverseGeocode)
	mux.HandleFunc("POST /api/check-address", h.HandleCheckAddress)
	mux.HandleFunc("GET /api/history", h.HandleHistory)
	mux.HandleFunc("GET /api/test", h.HandleTest)
	mux.HandleFunc("GET /static/{path...}", h.HandleStatic)
	mux.HandleFunc("GET /{$}", h.HandleStatic)
	if h.preview != nil {
		mux.Handle("GET /ws/preview", h.preview)
	}
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	return chain(mux,
		withTracing,
		withRecovery,
		h.withCORS,
		withRequestID,
		withLogging,
	)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// apiError is the body of every error response
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		slog.Error(message, "code", code, "status", status)
	} else {
		slog.Warn(message, "code", code, "status", status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiError{Error: message, Code: code}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) HandleTest(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Test endpoint called")
	h.writeJSON(w, map[string]string{"message": "Server is running!"})
}
