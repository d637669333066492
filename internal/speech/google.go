package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"
)

// GoogleRecognizer calls the Cloud Speech-to-Text v1 REST API
type GoogleRecognizer struct {
	apiKey string
	opts   []option.ClientOption
}

// NewGoogleRecognizer creates a recognizer authenticated with an API key.
// Extra options are appended to the client options (endpoint overrides in tests).
func NewGoogleRecognizer(apiKey string, opts ...option.ClientOption) *GoogleRecognizer {
	return &GoogleRecognizer{apiKey: apiKey, opts: opts}
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, wav []byte, language string) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	svc, err := speechapi.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}

	resp, err := svc.Speech.Recognize(&speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: 16000,
			LanguageCode:    language,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(wav),
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("recognize request failed: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(result.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoSpeech
	}
	return strings.Join(parts, " "), nil
}
