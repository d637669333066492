package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gmaps "googlemaps.github.io/maps"

	"github.com/sitesmith/sitesmith/internal/models"
)

const geocodeResponse = `{
  "status": "OK",
  "results": [{
    "formatted_address": "1 Rue de Rivoli, 75001 Paris, France",
    "geometry": {"location": {"lat": 48.8606, "lng": 2.3376}},
    "address_components": [
      {"long_name": "Paris", "short_name": "Paris", "types": ["locality", "political"]},
      {"long_name": "Île-de-France", "short_name": "IDF", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "France", "short_name": "FR", "types": ["country", "political"]},
      {"long_name": "75001", "short_name": "75001", "types": ["postal_code"]}
    ]
  }]
}`

func newTestGeocoder(t *testing.T, body string) *GoogleGeocoder {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/geocode/json") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Expected API key in query, got %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	g, err := NewGoogleGeocoder("test-key", gmaps.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGoogleGeocoder() error = %v", err)
	}
	return g
}

func TestGeocode(t *testing.T) {
	g := newTestGeocoder(t, geocodeResponse)

	coords, err := g.Geocode(context.Background(), "1 rue de Rivoli")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if coords.Lat != 48.8606 || coords.Lng != 2.3376 {
		t.Errorf("Expected 48.8606,2.3376, got %v,%v", coords.Lat, coords.Lng)
	}
	if coords.FormattedAddress != "1 Rue de Rivoli, 75001 Paris, France" {
		t.Errorf("Unexpected formatted address %q", coords.FormattedAddress)
	}
}

func TestReverseGeocode(t *testing.T) {
	g := newTestGeocoder(t, geocodeResponse)

	addr, err := g.ReverseGeocode(context.Background(), 48.8606, 2.3376)
	if err != nil {
		t.Fatalf("ReverseGeocode() error = %v", err)
	}
	expected := models.Address{
		FormattedAddress: "1 Rue de Rivoli, 75001 Paris, France",
		City:             "Paris",
		State:            "Île-de-France",
		Country:          "France",
		Zip:              "75001",
	}
	if addr != expected {
		t.Errorf("Expected %+v, got %+v", expected, addr)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	g := newTestGeocoder(t, `{"status": "ZERO_RESULTS", "results": []}`)

	if _, err := g.Geocode(context.Background(), "nowhere"); !errors.Is(err, ErrNoResults) {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
	if _, err := g.ReverseGeocode(context.Background(), 0, 0); !errors.Is(err, ErrNoResults) {
		t.Errorf("Expected ErrNoResults, got %v", err)
	}
}

func TestNewGoogleGeocoderMissingKey(t *testing.T) {
	if _, err := NewGoogleGeocoder(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}

func TestEmbed(t *testing.T) {
	code := "<html><body><h1>Contact</h1></body></html>"
	w := Widget{
		Lat:     48.8606,
		Lng:     2.3376,
		Zoom:    15,
		Markers: []models.MapMarker{{Lat: 48.8606, Lng: 2.3376, Title: "Boutique"}},
	}

	got, err := Embed(code, "maps-key", w)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	for _, want := range []string{`class="map-section"`, "key=maps-key", "48.8606", "2.3376", "15", `"Boutique"`, "new google.maps.Marker"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "</body></html>") {
		t.Errorf("Expected widget before </body>, got:\n%s", got)
	}
	if strings.Index(got, "map-section") < strings.Index(got, "<h1>") {
		t.Error("Expected widget after existing body content")
	}
}

func TestEmbedEscapesMarkerTitles(t *testing.T) {
	w := Widget{Lat: DefaultLat, Lng: DefaultLng, Zoom: DefaultZoom, Markers: []models.MapMarker{{Title: `"); alert(1); ("`}}}

	got, err := Embed("<body></body>", "k", w)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if strings.Contains(got, `alert(1); ("`) {
		t.Errorf("Expected marker title escaped, got:\n%s", got)
	}
}

func TestEmbedMissingKey(t *testing.T) {
	if _, err := Embed("<body></body>", "", Widget{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}
