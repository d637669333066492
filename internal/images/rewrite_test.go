package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/storage"
)

type resolveCall struct {
	query, imageID, page, folder string
}

// stubResolver returns results keyed by query
type stubResolver struct {
	results map[string]models.ImageResult
	calls   []resolveCall
}

func (s *stubResolver) FetchImage(_ context.Context, query, imageID, pageName, folderName string) models.ImageResult {
	s.calls = append(s.calls, resolveCall{query, imageID, pageName, folderName})
	return s.results[query]
}

func TestReplacePageImages(t *testing.T) {
	resolver := &stubResolver{results: map[string]models.ImageResult{
		"fresh apple": {URL: "https://images.pexels.com/apple.jpg", Attribution: "Photo by X", Source: "Pexels"},
	}}
	rw := NewRewriter(resolver, nil, nil, "")

	code := `<html><body>
<img src="https://example.com/x.jpg" alt="fresh apple">
<img alt="missing" src="">
<img src="/static/logo.png" alt="logo">
</body></html>`

	result, metas := rw.ReplacePageImages(context.Background(), code, "fruits/index.html")

	if !strings.Contains(result, `<img src="https://images.pexels.com/apple.jpg" alt="fresh apple">`) {
		t.Errorf("Expected resolved image, got:\n%s", result)
	}
	if !strings.Contains(result, `<img alt="missing" src="/static/real_image.jpg">`) {
		t.Errorf("Expected placeholder for unresolved image, got:\n%s", result)
	}
	if !strings.Contains(result, `<img src="/static/logo.png" alt="logo">`) {
		t.Errorf("Expected local image untouched, got:\n%s", result)
	}

	if len(metas) != 1 || metas[0].Query != "fresh apple" || metas[0].Source != "Pexels" {
		t.Errorf("Unexpected metadata %+v", metas)
	}

	expected := []resolveCall{
		{"fresh apple", "index_0", "index", "fruits"},
		{"missing", "index_1", "index", "fruits"},
	}
	if len(resolver.calls) != len(expected) {
		t.Fatalf("Expected %d resolutions, got %+v", len(expected), resolver.calls)
	}
	for i := range expected {
		if resolver.calls[i] != expected[i] {
			t.Errorf("Call %d: expected %+v, got %+v", i, expected[i], resolver.calls[i])
		}
	}
}

func TestReplacePageImagesBackground(t *testing.T) {
	resolver := &stubResolver{results: map[string]models.ImageResult{
		"about": {URL: "https://cdn.pixabay.com/bg.jpg", Source: "Pixabay"},
	}}
	rw := NewRewriter(resolver, nil, nil, "")

	code := `<div style="background-image: url('https://example.com/old.jpg')"></div>`
	result, metas := rw.ReplacePageImages(context.Background(), code, "about.html")

	if !strings.Contains(result, "background-image: url('https://cdn.pixabay.com/bg.jpg')") {
		t.Errorf("Expected background replaced, got %s", result)
	}
	if len(metas) != 1 || resolver.calls[0].imageID != "about_bg_0" || resolver.calls[0].folder != "default" {
		t.Errorf("Unexpected resolution %+v / %+v", resolver.calls, metas)
	}
}

func TestReplacePageImagesBackgroundPlaceholder(t *testing.T) {
	tests := []struct {
		name        string
		placeholder string
		expected    string
	}{
		{"default placeholder", "", "background-image: url('/static/real_image.jpg')"},
		{"custom placeholder", "/static/none.jpg", "background-image: url('/static/none.jpg')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := NewRewriter(&stubResolver{}, nil, nil, tt.placeholder)
			code := `<div style="background-image: url('https://example.com/old.jpg')"></div>`
			result, metas := rw.ReplacePageImages(context.Background(), code, "about.html")

			if !strings.Contains(result, tt.expected) {
				t.Errorf("Expected %q, got %s", tt.expected, result)
			}
			if strings.Contains(result, "example.com") {
				t.Errorf("Expected external URL removed, got %s", result)
			}
			if len(metas) != 0 {
				t.Errorf("Expected no metadata, got %+v", metas)
			}
		})
	}
}

func TestReplacePageImagesNoAltUsesPageName(t *testing.T) {
	resolver := &stubResolver{}
	rw := NewRewriter(resolver, nil, nil, "/static/none.jpg")

	result, _ := rw.ReplacePageImages(context.Background(), `<img class="hero">`, "")
	if result != `<img src="/static/none.jpg" class="hero">` {
		t.Errorf("Unexpected result %s", result)
	}
	if resolver.calls[0].query != "default" || resolver.calls[0].imageID != "default_0" {
		t.Errorf("Expected page name as query, got %+v", resolver.calls[0])
	}
}

func TestReplacePageImagesLocalFile(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	pngBytes := buf.Bytes()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer server.Close()

	root := t.TempDir()
	store, err := storage.NewLocal(root)
	if err != nil {
		t.Fatal(err)
	}

	resolver := &stubResolver{results: map[string]models.ImageResult{
		"hero banner": {URL: server.URL + "/photo.png", Source: "Pexels"},
	}}
	rw := NewRewriter(resolver, store, server.Client(), "")

	code := `<img src="images/hero_banner.png"><img src="../../evil/x.png" alt="hero banner">`
	result, metas := rw.ReplacePageImages(context.Background(), code, "home.html")

	if !strings.Contains(result, `<img src="/static/hero_banner.png">`) {
		t.Errorf("Expected local src rewritten, got %s", result)
	}
	stored, err := os.ReadFile(filepath.Join(root, "hero_banner.png"))
	if err != nil {
		t.Fatalf("Expected image stored under content root: %v", err)
	}
	if !bytes.Equal(stored, pngBytes) {
		t.Error("Stored image differs from downloaded bytes")
	}
	if _, err := os.Stat(filepath.Join(root, "..", "evil")); err == nil {
		t.Error("Expected nothing written outside the content root")
	}
	if resolver.calls[0].imageID != "home_local_0" {
		t.Errorf("Expected local image id, got %s", resolver.calls[0].imageID)
	}
	if len(metas) != 2 {
		t.Errorf("Expected 2 metadata entries, got %+v", metas)
	}
}

func TestReplaceFolderImages(t *testing.T) {
	resolver := &stubResolver{results: map[string]models.ImageResult{
		"voyages": {URL: "https://img/trip.jpg", Source: "Pexels"},
	}}
	rw := NewRewriter(resolver, nil, nil, "")

	result, metas := rw.ReplaceFolderImages(context.Background(), `<img src=""><img alt="unknown">`, "voyages")
	if !strings.Contains(result, `<img src="https://img/trip.jpg">`) {
		t.Errorf("Expected folder image resolved, got %s", result)
	}
	if !strings.Contains(result, `<img src="https://via.placeholder.com/300" alt="unknown">`) {
		t.Errorf("Expected folder placeholder, got %s", result)
	}
	if len(metas) != 1 {
		t.Errorf("Expected 1 metadata entry, got %+v", metas)
	}
	for _, c := range resolver.calls {
		if c.imageID != "voyages_folder" || c.folder != "voyages" {
			t.Errorf("Unexpected call %+v", c)
		}
	}
}

func TestSetSrc(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		url      string
		expected string
	}{
		{"double quoted", `<img src="a.jpg" alt="x">`, "https://b", `<img src="https://b" alt="x">`},
		{"single quoted", `<img alt="x" src='a.jpg'>`, "https://b", `<img alt="x" src="https://b">`},
		{"unquoted", `<img src=a.jpg>`, "https://b", `<img src="https://b">`},
		{"missing", `<img alt="x">`, "https://b", `<img src="https://b" alt="x">`},
		{"data-src ignored", `<img data-src="a" src="b">`, "c", `<img data-src="a" src="c">`},
		{"quotes escaped", `<img src="">`, `https://b/"x'`, `<img src="https://b/%22x%27">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := setSrc(tt.tag, tt.url); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
