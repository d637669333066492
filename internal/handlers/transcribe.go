package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sitesmith/sitesmith/internal/speech"
)

func (h *Handler) HandleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody)

	file, header, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Audio file too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "MISSING_AUDIO_FILE", "No audio file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_AUDIO_FILE", "No audio file selected")
		return
	}
	slog.Debug("Received audio upload", "filename", header.Filename, "size", header.Size)

	text, err := h.speech.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		status, code := transcribeErrorCode(err)
		h.writeError(w, status, code, err.Error())
		return
	}

	h.writeJSON(w, map[string]string{"text": text})
}

func transcribeErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, speech.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT"
	case errors.Is(err, speech.ErrEmptyAudio):
		return http.StatusBadRequest, "EMPTY_AUDIO_FILE"
	case errors.Is(err, speech.ErrNoAudioData):
		return http.StatusBadRequest, "NO_AUDIO_DATA"
	case errors.Is(err, speech.ErrNoSpeech):
		return http.StatusBadRequest, "TRANSCRIBE_FAILED"
	case errors.Is(err, speech.ErrDecodeAudio):
		return http.StatusInternalServerError, "PROCESS_AUDIO_FAILED"
	case errors.Is(err, speech.ErrConvertAudio):
		return http.StatusInternalServerError, "CONVERT_AUDIO_FAILED"
	case errors.Is(err, speech.ErrRecognitionRequest):
		return http.StatusInternalServerError, "API_REQUEST_FAILED"
	case errors.Is(err, speech.ErrMissingAPIKey):
		return http.StatusInternalServerError, "MISSING_API_KEY"
	default:
		return http.StatusInternalServerError, "TRANSCRIBE_FAILED"
	}
}
