package maps

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sitesmith/sitesmith/internal/htmlclean"
	"github.com/sitesmith/sitesmith/internal/models"
)

const (
	DefaultLat  = 37.4419
	DefaultLng  = -122.1419
	DefaultZoom = 13
)

// Widget describes an embedded Google Maps section
type Widget struct {
	Lat     float64            `json:"lat"`
	Lng     float64            `json:"lng"`
	Zoom    int                `json:"zoom"`
	Markers []models.MapMarker `json:"markers"`
}

var widgetTmpl = template.Must(template.New("map").Parse(`
<section class="map-section">
    <h2>Location Map</h2>
    <div id="map" style="height: 400px; width: 100%; margin: 20px 0;"></div>
    <script src="https://maps.googleapis.com/maps/api/js?key={{.APIKey}}&callback=initMap" async defer></script>
    <script>
        function initMap() {
            const map = new google.maps.Map(document.getElementById("map"), {
                zoom: {{.Zoom}},
                center: { lat: {{.Lat}}, lng: {{.Lng}} }
            });
            {{range .Markers}}new google.maps.Marker({ position: { lat: {{.Lat}}, lng: {{.Lng}} }, map: map, title: {{.Title}} });
            {{end}}
        }
    </script>
</section>
`))

// RenderWidget renders the map section markup for w.
func RenderWidget(apiKey string, w Widget) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var buf bytes.Buffer
	err := widgetTmpl.Execute(&buf, struct {
		Widget
		APIKey string
	}{w, apiKey})
	if err != nil {
		return "", fmt.Errorf("failed to render map widget: %w", err)
	}
	return buf.String(), nil
}

// Embed inserts the map widget before the closing body tag of code.
func Embed(code, apiKey string, w Widget) (string, error) {
	section, err := RenderWidget(apiKey, w)
	if err != nil {
		return "", err
	}
	return htmlclean.InsertBeforeBodyEnd(code, section), nil
}
