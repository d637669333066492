package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sitesmith/sitesmith/internal/models"
)

func TestBasePage(t *testing.T) {
	tests := []struct {
		id       string
		expected int
	}{
		{"about_0", 1},
		{"about_2", 3},
		{"index_bg_4", 5},
		{"fruits_folder", 1},
		{"nounderscore", 1},
		{"7", 8},
		{"", 1},
		{"x_-3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := BasePage(tt.id); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestPexelsSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "pexels-key" {
			t.Errorf("Expected Authorization header, got %q", r.Header.Get("Authorization"))
		}
		q := r.URL.Query()
		if q.Get("query") != "fresh apple" || q.Get("page") != "2" || q.Get("per_page") != "3" || q.Get("orientation") != "landscape" {
			t.Errorf("Unexpected query params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"photos":[
			{"photographer":"Jane <Doe>","photographer_url":"https://www.pexels.com/@jane","alt":"Fresh red apple","src":{"medium":"https://images.pexels.com/1.jpg"}},
			{"photographer":"Nobody","src":{"medium":""}}
		]}`))
	}))
	defer server.Close()

	p := NewPexels("pexels-key", server.Client())
	p.BaseURL = server.URL

	candidates, err := p.Search(context.Background(), "fresh apple", 2, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Source != models.ProviderPexels {
		t.Errorf("Expected source Pexels, got %s", c.Source)
	}
	if c.URL != "https://images.pexels.com/1.jpg" {
		t.Errorf("Expected medium URL, got %s", c.URL)
	}
	if !IsRelevant(c.Tags, []string{"fresh", "apple"}, 2) {
		t.Errorf("Expected alt text tags, got %v", c.Tags)
	}
	expected := `Photo by <a href="https://www.pexels.com/@jane">Jane &lt;Doe&gt;</a> on <a href="https://www.pexels.com">Pexels</a>`
	if c.Attribution != expected {
		t.Errorf("Expected attribution %q, got %q", expected, c.Attribution)
	}
	if len(c.Raw) == 0 {
		t.Error("Expected raw payload to be kept")
	}
}

func TestPixabaySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "pixabay-key" || q.Get("q") != "beach" || q.Get("image_type") != "photo" || q.Get("orientation") != "horizontal" {
			t.Errorf("Unexpected query params: %v", q)
		}
		_, _ = w.Write([]byte(`{"hits":[{"webformatURL":"https://pixabay.com/get/1.jpg","user":"jdoe","user_id":42,"tags":"sandy beach, sea"}]}`))
	}))
	defer server.Close()

	p := NewPixabay("pixabay-key", server.Client())
	p.BaseURL = server.URL

	candidates, err := p.Search(context.Background(), "beach", 1, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Source != models.ProviderPixabay || c.URL != "https://pixabay.com/get/1.jpg" {
		t.Errorf("Unexpected candidate %+v", c)
	}
	for _, tag := range []string{"sandy beach", "sandy", "beach", "sea"} {
		if _, ok := c.Tags[tag]; !ok {
			t.Errorf("Expected tag %q, got %v", tag, c.Tags)
		}
	}
	if !strings.Contains(c.Attribution, `href="https://pixabay.com/users/jdoe-42/"`) {
		t.Errorf("Expected user link in attribution, got %q", c.Attribution)
	}
}

func TestSearchMissingKey(t *testing.T) {
	sources := []Source{NewPexels("", nil), NewPixabay("", nil)}
	for _, src := range sources {
		t.Run(string(src.ID()), func(t *testing.T) {
			_, err := src.Search(context.Background(), "x", 1, 3)
			if !errors.Is(err, ErrProviderUnavailable) {
				t.Errorf("Expected ErrProviderUnavailable, got %v", err)
			}
		})
	}
}

func TestSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewPexels("key", server.Client())
	p.BaseURL = server.URL

	_, err := p.Search(context.Background(), "x", 1, 3)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected *RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusTooManyRequests || reqErr.Provider != models.ProviderPexels {
		t.Errorf("Unexpected error fields: %+v", reqErr)
	}
}

func TestSearchTransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	pexels := NewPexels("SECRETKEY123", nil)
	pexels.BaseURL = baseURL
	pixabay := NewPixabay("SECRETKEY123", nil)
	pixabay.BaseURL = baseURL

	for _, src := range []Source{pexels, pixabay} {
		t.Run(string(src.ID()), func(t *testing.T) {
			_, err := src.Search(context.Background(), "beach", 1, 3)
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("Expected *RequestError, got %v", err)
			}
			if strings.Contains(err.Error(), "SECRETKEY123") {
				t.Errorf("Expected API key to be redacted, got %q", err.Error())
			}
		})
	}
}
