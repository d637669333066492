package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesMetrics(t *testing.T) {
	ImageResolutions.WithLabelValues("relevant").Inc()
	Transcriptions.WithLabelValues("success").Inc()
	HTTPRequests.WithLabelValues("GET /api/test", "GET", "200").Inc()
	PreviewClients.Set(2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`sitesmith_image_resolutions_total{outcome="relevant"}`,
		`sitesmith_transcriptions_total{outcome="success"}`,
		`sitesmith_http_requests_total{method="GET",route="GET /api/test",status="200"}`,
		"sitesmith_preview_clients 2",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected metrics output to contain %s", want)
		}
	}
}
