package models

import (
	"encoding/json"
	"path"
	"strings"
	"time"
)

// ProviderID identifies a stock-photo backend
type ProviderID string

const (
	ProviderPexels  ProviderID = "Pexels"
	ProviderPixabay ProviderID = "Pixabay"
)

// ImageQuery is a free-text image request plus optional page/folder context
type ImageQuery struct {
	Query      string `json:"query" yaml:"query"`
	PageName   string `json:"page_name,omitempty" yaml:"page,omitempty"`
	FolderName string `json:"folder_name,omitempty" yaml:"folder,omitempty"`
}

// ImageCandidate is a single search hit from a provider
type ImageCandidate struct {
	Source      ProviderID
	URL         string
	Tags        map[string]struct{}
	Attribution string
	Raw         json.RawMessage
}

// ImageResult is either a resolved image or the empty sentinel
type ImageResult struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution,omitempty"`
	Source      string `json:"source"`
}

// EmptyImageResult is returned when no provider produced any candidate.
func EmptyImageResult() ImageResult {
	return ImageResult{}
}

// IsEmpty reports whether r is the empty sentinel.
func (r ImageResult) IsEmpty() bool {
	return r.URL == ""
}

// ResultFromCandidate converts a candidate into a success result.
func ResultFromCandidate(c ImageCandidate) ImageResult {
	if c.URL == "" {
		return EmptyImageResult()
	}
	return ImageResult{
		URL:         c.URL,
		Attribution: c.Attribution,
		Source:      string(c.Source),
	}
}

// ImageMeta describes one replaced image in an add-image response
type ImageMeta struct {
	URL         string `json:"url"`
	Query       string `json:"query"`
	Attribution string `json:"attribution"`
	Source      string `json:"source"`
}

// PageDocument is a persisted HTML page under the content root
type PageDocument struct {
	Path    string `json:"path"`
	Folder  string `json:"folder"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

const DefaultFolder = "default"

// FolderFromPath returns the first segment of a page path, or "default"
// when the path has no folder component.
func FolderFromPath(pagePath string) string {
	p := strings.Trim(strings.ReplaceAll(pagePath, "\\", "/"), "/")
	parts := strings.Split(p, "/")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return DefaultFolder
}

// PageNameFromPath returns the last segment of a page path without its .html suffix.
func PageNameFromPath(pagePath string) string {
	p := strings.Trim(strings.ReplaceAll(pagePath, "\\", "/"), "/")
	if p == "" {
		return ""
	}
	return strings.TrimSuffix(path.Base(p), ".html")
}

// ModificationIntent is the parsed form of a structured prompt
type ModificationIntent struct {
	Action  string         `json:"action"`
	Target  string         `json:"target"`
	Content string         `json:"content"`
	Style   map[string]any `json:"style"`
	Icon    string         `json:"icon,omitempty"`
}

// IconOrNone renders the icon the way prompts and summaries expect it.
func (m ModificationIntent) IconOrNone() string {
	if m.Icon == "" {
		return "none"
	}
	return m.Icon
}

// StyleJSON serializes the style mapping, "{}" when empty.
func (m ModificationIntent) StyleJSON() string {
	if len(m.Style) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m.Style)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// VoiceIntent is a command recognized in a voice transcription
type VoiceIntent string

const (
	VoiceAddImage    VoiceIntent = "add_image"
	VoiceModifyText  VoiceIntent = "modify_text"
	VoiceModifyStyle VoiceIntent = "modify_style"
	VoiceAddButton   VoiceIntent = "add_button"
	VoiceAddIcon     VoiceIntent = "add_icon"
)

// HierarchyNode is a folder or file in the content tree
type HierarchyNode struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"` // "folder" or "file"
	Path     string          `json:"path"`
	Children []HierarchyNode `json:"children,omitempty"`
}

// Coordinates is a geocoding result
type Coordinates struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}

// Address is a reverse-geocoding result
type Address struct {
	FormattedAddress string `json:"formatted_address"`
	City             string `json:"city"`
	State            string `json:"state"`
	Country          string `json:"country"`
	Zip              string `json:"zip"`
}

// MapMarker is a pin on an embedded map
type MapMarker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Title string  `json:"title,omitempty"`
}

// HistoryEntry is one recorded modification of a page
type HistoryEntry struct {
	ID        string    `json:"id"`
	PagePath  string    `json:"page_path"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Content   string    `json:"content"`
	Style     string    `json:"style"`
	Icon      string    `json:"icon,omitempty"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// PreviewEvent is pushed to live-preview subscribers when the content tree changes
type PreviewEvent struct {
	Type string    `json:"type"` // "page.saved", "page.moved", "folder.created"
	Path string    `json:"path"`
	From string    `json:"from,omitempty"`
	At   time.Time `json:"at"`
}
