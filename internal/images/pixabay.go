package images

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sitesmith/sitesmith/internal/models"
)

const pixabayBaseURL = "https://pixabay.com/api/"

// Pixabay searches the Pixabay image API
type Pixabay struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewPixabay creates a Pixabay client
func NewPixabay(apiKey string, client *http.Client) *Pixabay {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Pixabay{
		APIKey:     apiKey,
		BaseURL:    pixabayBaseURL,
		HTTPClient: client,
	}
}

func (p *Pixabay) ID() models.ProviderID {
	return models.ProviderPixabay
}

type pixabayResponse struct {
	Hits []json.RawMessage `json:"hits"`
}

type pixabayHit struct {
	WebformatURL string `json:"webformatURL"`
	User         string `json:"user"`
	UserID       int64  `json:"user_id"`
	Tags         string `json:"tags"`
}

func (p *Pixabay) Search(ctx context.Context, query string, page, perPage int) ([]models.ImageCandidate, error) {
	if p.APIKey == "" {
		return nil, ErrProviderUnavailable
	}

	// Pixabay rejects per_page below 3
	if perPage < 3 {
		perPage = 3
	}

	params := url.Values{}
	params.Set("key", p.APIKey)
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("image_type", "photo")
	params.Set("orientation", "horizontal")

	req, err := http.NewRequest(http.MethodGet, p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pixabay request: %w", err)
	}

	body, err := getJSON(ctx, p.HTTPClient, models.ProviderPixabay, req)
	if err != nil {
		return nil, err
	}

	var resp pixabayResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &RequestError{Provider: models.ProviderPixabay, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	candidates := make([]models.ImageCandidate, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		var hit pixabayHit
		if err := json.Unmarshal(raw, &hit); err != nil {
			continue
		}
		if hit.WebformatURL == "" {
			continue
		}
		userURL := fmt.Sprintf("https://pixabay.com/users/%s-%d/", url.PathEscape(hit.User), hit.UserID)
		candidates = append(candidates, models.ImageCandidate{
			Source: models.ProviderPixabay,
			URL:    hit.WebformatURL,
			Tags:   PhraseTagSet(hit.Tags),
			Attribution: fmt.Sprintf(`Photo by <a href="%s">%s</a> on <a href="https://pixabay.com">Pixabay</a>`,
				html.EscapeString(userURL), html.EscapeString(hit.User)),
			Raw: raw,
		})
	}
	return candidates, nil
}
