package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/metrics"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported audio format, must be .webm, .wav, .mp3, or .m4a")
	ErrEmptyAudio         = errors.New("audio file is empty")
	ErrDecodeAudio        = errors.New("failed to process audio file, ensure ffmpeg is installed and in PATH")
	ErrConvertAudio       = errors.New("failed to convert audio to WAV format")
	ErrNoAudioData        = errors.New("no audio data recorded")
	ErrNoSpeech           = errors.New("could not understand the audio after multiple attempts")
	ErrRecognitionRequest = errors.New("request to speech API failed after multiple attempts")
	ErrMissingAPIKey      = errors.New("speech API key not configured")
)

// SupportedExtensions lists the accepted upload formats
var SupportedExtensions = []string{".webm", ".wav", ".mp3", ".m4a"}

// wavHeaderSize is the canonical RIFF header written by ffmpeg
const wavHeaderSize = 44

// Recognizer turns 16 kHz mono LINEAR16 WAV audio into text.
// It returns ErrNoSpeech when the audio holds no recognizable speech.
type Recognizer interface {
	Recognize(ctx context.Context, wav []byte, language string) (string, error)
}

// Converter transcodes an audio file into 16 kHz mono WAV
type Converter interface {
	ToWAV(ctx context.Context, src, dst string) error
}

// Options configures a Service
type Options struct {
	Language   string
	MaxRetries int
	RetryDelay time.Duration
}

// Service handles audio transcription
type Service struct {
	recognizer Recognizer
	converter  Converter
	language   string
	maxRetries int
	retryDelay time.Duration
}

// NewService creates a new transcription service
func NewService(recognizer Recognizer, converter Converter, opts Options) *Service {
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	return &Service{
		recognizer: recognizer,
		converter:  converter,
		language:   opts.Language,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// Supported reports whether filename has an accepted audio extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Transcribe converts the uploaded audio to WAV and runs speech recognition.
// Temporary files are removed on every return path.
func (s *Service) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	text, err := s.transcribe(ctx, filename, audio)
	if err != nil {
		metrics.Transcriptions.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.Transcriptions.WithLabelValues("ok").Inc()
	return text, nil
}

func (s *Service) transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if !Supported(filename) {
		slog.Warn("Unsupported audio format", "filename", filename)
		return "", ErrUnsupportedFormat
	}

	tmp, err := os.CreateTemp("", "sitesmith-audio-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	srcPath := tmp.Name()
	defer func() {
		if err := os.Remove(srcPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to clean up temp file", "path", srcPath, "error", err)
		}
	}()

	size, err := io.Copy(tmp, audio)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to save audio file: %w", err)
	}
	slog.Debug("Saved audio", "path", srcPath, "bytes", size)
	if size == 0 {
		return "", ErrEmptyAudio
	}

	wavPath := strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ".converted.wav"
	defer func() {
		if err := os.Remove(wavPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to clean up WAV file", "path", wavPath, "error", err)
		}
	}()

	if err := s.converter.ToWAV(ctx, srcPath, wavPath); err != nil {
		slog.Error("Failed to convert audio", "path", srcPath, "error", err)
		if errors.Is(err, ErrDecodeAudio) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrConvertAudio, err)
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil || len(wav) == 0 {
		return "", ErrConvertAudio
	}
	if len(wav) <= wavHeaderSize {
		return "", ErrNoAudioData
	}
	slog.Debug("Converted audio to WAV", "path", wavPath, "bytes", len(wav))

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		text, err := s.recognizer.Recognize(ctx, wav, s.language)
		if err == nil {
			slog.Debug("Transcription successful", "text", text)
			return text, nil
		}
		if errors.Is(err, ErrMissingAPIKey) {
			return "", err
		}
		lastErr = err
		slog.Warn("Speech recognition attempt failed", "attempt", attempt, "error", err)

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}

	if errors.Is(lastErr, ErrNoSpeech) {
		return "", ErrNoSpeech
	}
	return "", fmt.Errorf("%w: %v", ErrRecognitionRequest, lastErr)
}
