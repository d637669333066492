package maps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gmaps "googlemaps.github.io/maps"

	"github.com/sitesmith/sitesmith/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("google maps API key is not configured")
	ErrNoResults     = errors.New("no geocoding results")
)

// Geocoder converts between addresses and coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (models.Address, error)
}

// GoogleGeocoder uses the Google Maps Geocoding API
type GoogleGeocoder struct {
	client *gmaps.Client
}

// NewGoogleGeocoder creates a geocoder for apiKey. It returns ErrMissingAPIKey
// when no key is configured.
func NewGoogleGeocoder(apiKey string, opts ...gmaps.ClientOption) (*GoogleGeocoder, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := gmaps.NewClient(append([]gmaps.ClientOption{gmaps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	results, err := g.client.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil {
		if isZeroResults(err) {
			return models.Coordinates{}, ErrNoResults
		}
		return models.Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinates{}, ErrNoResults
	}

	first := results[0]
	coords := models.Coordinates{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}
	slog.Debug("Geocoded address", "address", address, "lat", coords.Lat, "lng", coords.Lng)
	return coords, nil
}

func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (models.Address, error) {
	results, err := g.client.ReverseGeocode(ctx, &gmaps.GeocodingRequest{
		LatLng: &gmaps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		if isZeroResults(err) {
			return models.Address{}, ErrNoResults
		}
		return models.Address{}, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	if len(results) == 0 {
		return models.Address{}, ErrNoResults
	}

	addr := AddressFromResult(results[0])
	slog.Debug("Reverse geocoded coordinates", "lat", lat, "lng", lng, "address", addr.FormattedAddress)
	return addr, nil
}

// AddressFromResult picks the locality, first-level administrative area,
// country and postal code components of a geocoding result.
func AddressFromResult(r gmaps.GeocodingResult) models.Address {
	return models.Address{
		FormattedAddress: r.FormattedAddress,
		City:             component(r.AddressComponents, "locality"),
		State:            component(r.AddressComponents, "administrative_area_level_1"),
		Country:          component(r.AddressComponents, "country"),
		Zip:              component(r.AddressComponents, "postal_code"),
	}
}

func component(components []gmaps.AddressComponent, kind string) string {
	for _, c := range components {
		for _, t := range c.Types {
			if t == kind {
				return c.LongName
			}
		}
	}
	return ""
}

func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS")
}
