package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/storage"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"
)

// DefaultPlaceholder is used when no image could be resolved for a page.
const DefaultPlaceholder = "/static/real_image.jpg"

// FolderPlaceholder is used when no image could be resolved for a new folder.
const FolderPlaceholder = "https://via.placeholder.com/300"

const maxDownloadSize = 20 * 1024 * 1024

var (
	imgTagRe     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	srcAttrRe    = regexp.MustCompile(`(?is)(\s)src\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'>]+)`)
	bgImageRe    = regexp.MustCompile(`(?i)background-image:\s*url\((['"]?)(https?://[^'")]+)(['"]?)\)`)
	localImageRe = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)$`)
)

// Resolver resolves a query to a single image
type Resolver interface {
	FetchImage(ctx context.Context, query, imageID, pageName, folderName string) models.ImageResult
}

// Rewriter replaces image references inside generated HTML
type Rewriter struct {
	resolver    Resolver
	store       storage.Store
	httpClient  *http.Client
	placeholder string
}

// NewRewriter creates a Rewriter. store may be nil, in which case local image
// files are left untouched.
func NewRewriter(resolver Resolver, store storage.Store, client *http.Client, placeholder string) *Rewriter {
	if client == nil {
		client = NewHTTPClient()
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Rewriter{
		resolver:    resolver,
		store:       store,
		httpClient:  client,
		placeholder: placeholder,
	}
}

// ReplacePageImages resolves every external or empty <img>, every external
// background image and every local image file referenced by code.
func (rw *Rewriter) ReplacePageImages(ctx context.Context, code, pagePath string) (string, []models.ImageMeta) {
	pageName := models.PageNameFromPath(pagePath)
	if pageName == "" {
		pageName = "default"
	}
	folder := models.FolderFromPath(pagePath)

	var metas []models.ImageMeta

	// <img> tags pointing at external URLs or nothing
	i := 0
	code = imgTagRe.ReplaceAllStringFunc(code, func(tag string) string {
		attrs := tagAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		if src != "" && !isExternal(src) {
			return tag
		}

		query := strings.TrimSpace(attrs["alt"])
		if query == "" {
			query = pageName
		}
		imageID := fmt.Sprintf("%s_%d", pageName, i)
		i++

		result := rw.resolver.FetchImage(ctx, query, imageID, pageName, folder)
		if result.IsEmpty() {
			slog.Warn("No image found, using placeholder", "query", query, "image_id", imageID)
			return setSrc(tag, rw.placeholder)
		}
		metas = append(metas, imageMeta(result, query))
		return setSrc(tag, result.URL)
	})

	// CSS background images
	b := 0
	code = bgImageRe.ReplaceAllStringFunc(code, func(match string) string {
		imageID := fmt.Sprintf("%s_bg_%d", pageName, b)
		b++

		result := rw.resolver.FetchImage(ctx, pageName, imageID, pageName, folder)
		if result.IsEmpty() {
			slog.Warn("No background image found, using placeholder", "image_id", imageID)
			return fmt.Sprintf("background-image: url('%s')", rw.placeholder)
		}
		metas = append(metas, imageMeta(result, pageName))
		return fmt.Sprintf("background-image: url('%s')", result.URL)
	})

	// Local image files are materialized under the content root
	if rw.store != nil {
		l := 0
		code = imgTagRe.ReplaceAllStringFunc(code, func(tag string) string {
			attrs := tagAttrs(tag)
			src := strings.TrimSpace(attrs["src"])
			if !isLocalImage(src) {
				return tag
			}

			fileName := path.Base(strings.ReplaceAll(src, `\`, "/"))
			query := strings.TrimSpace(attrs["alt"])
			if query == "" {
				query = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSuffix(fileName, path.Ext(fileName)))
			}
			imageID := fmt.Sprintf("%s_local_%d", pageName, l)
			l++

			result := rw.resolver.FetchImage(ctx, query, imageID, pageName, folder)
			if result.IsEmpty() {
				slog.Warn("No image found for local file", "file", fileName, "query", query)
				return tag
			}
			if err := rw.download(ctx, result.URL, fileName); err != nil {
				slog.Error("Failed to store image", "file", fileName, "url", result.URL, "error", err)
				return tag
			}
			metas = append(metas, imageMeta(result, query))
			return setSrc(tag, "/static/"+fileName)
		})
	}

	return code, metas
}

// ReplaceFolderImages resolves the external or empty <img> tags of a page
// created as part of a new folder.
func (rw *Rewriter) ReplaceFolderImages(ctx context.Context, code, folder string) (string, []models.ImageMeta) {
	var metas []models.ImageMeta
	imageID := folder + "_folder"

	code = imgTagRe.ReplaceAllStringFunc(code, func(tag string) string {
		attrs := tagAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		if src != "" && !isExternal(src) {
			return tag
		}

		query := strings.TrimSpace(attrs["alt"])
		if query == "" {
			query = folder
		}

		result := rw.resolver.FetchImage(ctx, query, imageID, "", folder)
		if result.IsEmpty() {
			return setSrc(tag, FolderPlaceholder)
		}
		metas = append(metas, imageMeta(result, query))
		return setSrc(tag, result.URL)
	})
	return code, metas
}

func (rw *Rewriter) download(ctx context.Context, url, fileName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := rw.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		slog.Info("Downloaded image", "file", fileName, "format", format, "width", cfg.Width, "height", cfg.Height)
	} else {
		slog.Debug("Could not read image dimensions", "file", fileName, "error", err)
	}

	if err := rw.store.Write(ctx, fileName, data); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func imageMeta(r models.ImageResult, query string) models.ImageMeta {
	return models.ImageMeta{
		URL:         r.URL,
		Query:       query,
		Attribution: r.Attribution,
		Source:      r.Source,
	}
}

// tagAttrs reads the attributes of a single start tag
func tagAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	z := html.NewTokenizer(strings.NewReader(tag))
	tt := z.Next()
	if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
		return attrs
	}
	_, hasAttr := z.TagName()
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs[string(key)] = string(val)
	}
	return attrs
}

// setSrc replaces the src attribute of tag, adding one when absent.
func setSrc(tag, url string) string {
	escaped := strings.NewReplacer(`"`, "%22", `'`, "%27").Replace(url)
	attr := fmt.Sprintf(`src="%s"`, escaped)

	if loc := srcAttrRe.FindStringSubmatchIndex(tag); loc != nil {
		lead := tag[loc[2]:loc[3]]
		return tag[:loc[0]] + lead + attr + tag[loc[1]:]
	}
	return tag[:len("<img")] + " " + attr + tag[len("<img"):]
}

func isExternal(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isLocalImage(src string) bool {
	if src == "" || isExternal(src) {
		return false
	}
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "/static/") || strings.HasPrefix(lower, "//") {
		return false
	}
	return localImageRe.MatchString(lower)
}
