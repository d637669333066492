package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Source is a stock-photo backend
type Source interface {
	ID() models.ProviderID
	Search(ctx context.Context, query string, page, perPage int) ([]models.ImageCandidate, error)
}

// ErrProviderUnavailable is returned when a provider has no API key configured.
var ErrProviderUnavailable = errors.New("image provider unavailable: API key not configured")

// RequestError is a failed provider call, either a transport error or a non-2xx status
type RequestError struct {
	Provider   models.ProviderID
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewHTTPClient returns the instrumented client shared by the provider clients.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// BasePage derives the first page to request from the numeric suffix of an
// image id ("about_2" -> 3). Ids without a numeric suffix start at page 1.
func BasePage(imageID string) int {
	idx := strings.LastIndex(imageID, "_")
	n, err := strconv.Atoi(imageID[idx+1:])
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}

func getJSON(ctx context.Context, client *http.Client, provider models.ProviderID, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &RequestError{Provider: provider, Err: redactURLError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, &RequestError{Provider: provider, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", truncate(string(body), 200)),
		}
	}
	return body, nil
}

// redactURLError drops the query string, which carries the API key, from
// transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, perr := url.Parse(urlErr.URL)
	if perr != nil {
		return &url.Error{Op: urlErr.Op, URL: "<redacted>", Err: urlErr.Err}
	}
	u.RawQuery = ""
	u.User = nil
	return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
