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

const pexelsBaseURL = "https://api.pexels.com/v1/search"

// Pexels searches the Pexels photo API
type Pexels struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewPexels creates a Pexels client. An empty key yields a client that
// reports ErrProviderUnavailable on every search.
func NewPexels(apiKey string, client *http.Client) *Pexels {
	if client == nil {
		client = NewHTTPClient()
	}
	return &Pexels{
		APIKey:     apiKey,
		BaseURL:    pexelsBaseURL,
		HTTPClient: client,
	}
}

func (p *Pexels) ID() models.ProviderID {
	return models.ProviderPexels
}

type pexelsResponse struct {
	Photos []json.RawMessage `json:"photos"`
}

type pexelsPhoto struct {
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Alt             string `json:"alt"`
	Description     string `json:"description"`
	Src             struct {
		Medium string `json:"medium"`
	} `json:"src"`
}

func (p *Pexels) Search(ctx context.Context, query string, page, perPage int) ([]models.ImageCandidate, error) {
	if p.APIKey == "" {
		return nil, ErrProviderUnavailable
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("orientation", "landscape")

	req, err := http.NewRequest(http.MethodGet, p.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pexels request: %w", err)
	}
	req.Header.Set("Authorization", p.APIKey)

	body, err := getJSON(ctx, p.HTTPClient, models.ProviderPexels, req)
	if err != nil {
		return nil, err
	}

	var resp pexelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &RequestError{Provider: models.ProviderPexels, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	candidates := make([]models.ImageCandidate, 0, len(resp.Photos))
	for _, raw := range resp.Photos {
		var photo pexelsPhoto
		if err := json.Unmarshal(raw, &photo); err != nil {
			continue
		}
		if photo.Src.Medium == "" {
			continue
		}
		candidates = append(candidates, models.ImageCandidate{
			Source: models.ProviderPexels,
			URL:    photo.Src.Medium,
			Tags:   TagSet(photo.Alt, photo.Description),
			Attribution: fmt.Sprintf(`Photo by <a href="%s">%s</a> on <a href="https://www.pexels.com">Pexels</a>`,
				html.EscapeString(photo.PhotographerURL), html.EscapeString(photo.Photographer)),
			Raw: raw,
		})
	}
	return candidates, nil
}
