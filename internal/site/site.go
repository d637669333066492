package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/models"
	"github.com/sitesmith/sitesmith/internal/storage"
)

var (
	ErrMissingFolderName = errors.New("folder name is required")
	ErrInvalidPages      = errors.New("pages are required and must be a dictionary")
	ErrMissingPagePath   = errors.New("page path is required")
	ErrMissingCode       = errors.New("updated code is required")
	ErrMissingHierarchy  = errors.New("hierarchy data required")
	ErrMissingFilePath   = errors.New("file path is required")
	ErrInvalidFilePath   = errors.New("invalid file path")
)

// HierarchyExtensions are the file types listed in the site hierarchy
var HierarchyExtensions = []string{".html", ".jpg", ".png", ".css", ".js"}

// FolderImageRewriter resolves the images of pages added through a new folder
type FolderImageRewriter interface {
	ReplaceFolderImages(ctx context.Context, code, folder string) (string, []models.ImageMeta)
}

// Publisher receives content-tree change notifications
type Publisher interface {
	Publish(ev models.PreviewEvent)
}

// Service manages the pages and folders of the site under the content root
type Service struct {
	store     storage.Store
	images    FolderImageRewriter
	publisher Publisher
}

// NewService creates a site service. images and publisher may be nil.
func NewService(store storage.Store, images FolderImageRewriter, publisher Publisher) *Service {
	return &Service{store: store, images: images, publisher: publisher}
}

// FolderResult describes a created folder
type FolderResult struct {
	Message    string             `json:"message"`
	FolderPath string             `json:"folderPath"`
	Pages      []string           `json:"pages"`
	Images     []models.ImageMeta `json:"images,omitempty"`
}

// AddFolder creates folderName and writes each page into it, resolving
// external or empty images with the folder name as the query.
func (s *Service) AddFolder(ctx context.Context, folderName string, pages map[string]string) (*FolderResult, error) {
	folderName = strings.TrimSpace(folderName)
	if folderName == "" {
		return nil, ErrMissingFolderName
	}
	if len(pages) == 0 {
		return nil, ErrInvalidPages
	}

	folder, err := storage.Clean(folderName)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)

	// validate every target before writing anything
	targets := make(map[string]string, len(names))
	for _, name := range names {
		fileName := name
		if !strings.HasSuffix(fileName, ".html") {
			fileName += ".html"
		}
		target, err := storage.Clean(path.Join(folder, fileName))
		if err != nil {
			return nil, err
		}
		if path.Dir(target) != folder {
			return nil, fmt.Errorf("%w: %q", storage.ErrUnauthorizedPath, name)
		}
		targets[name] = target
	}

	if err := s.store.MkdirAll(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	result := &FolderResult{
		Message:    fmt.Sprintf("Folder '%s' created successfully", folderName),
		FolderPath: folder,
		Pages:      names,
	}
	for _, name := range names {
		content := pages[name]
		if s.images != nil {
			var metas []models.ImageMeta
			content, metas = s.images.ReplaceFolderImages(ctx, content, folderName)
			result.Images = append(result.Images, metas...)
		}
		if err := s.store.Write(ctx, targets[name], []byte(content)); err != nil {
			return nil, fmt.Errorf("failed to save page %s: %w", name, err)
		}
		slog.Debug("Saved page", "page", name, "path", targets[name])
	}

	slog.Info("Folder created", "folder", folder, "pages", len(names))
	s.publish(models.PreviewEvent{Type: "folder.created", Path: folder})
	return result, nil
}

// SavePage writes code to pagePath and returns the normalized path.
func (s *Service) SavePage(ctx context.Context, pagePath, code string) (string, error) {
	if strings.TrimSpace(pagePath) == "" {
		return "", ErrMissingPagePath
	}
	if code == "" {
		return "", ErrMissingCode
	}

	cleaned, err := storage.Clean(pagePath)
	if err != nil {
		slog.Warn("Unauthorized path manipulation attempted", "path", pagePath)
		return "", err
	}
	if err := s.store.Write(ctx, cleaned, []byte(code)); err != nil {
		return "", fmt.Errorf("failed to save page: %w", err)
	}

	slog.Info("Page saved", "path", cleaned, "bytes", len(code))
	s.publish(models.PreviewEvent{Type: "page.saved", Path: cleaned})
	return cleaned, nil
}

// ReadPage returns the stored content of filePath. Paths that do not exist
// or escape the content root yield ErrInvalidFilePath.
func (s *Service) ReadPage(ctx context.Context, filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", ErrMissingFilePath
	}

	data, err := s.store.Read(ctx, filePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrUnauthorizedPath) {
			slog.Warn("Invalid or unauthorized file path", "path", filePath)
			return "", fmt.Errorf("%w: %w", ErrInvalidFilePath, err)
		}
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(data), nil
}

// Hierarchy lists every folder with its site files, followed by a "root"
// node for top-level files when there are any.
func (s *Service) Hierarchy(ctx context.Context) ([]models.HierarchyNode, error) {
	entries, err := s.store.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content root: %w", err)
	}

	nodes := []models.HierarchyNode{}
	index := map[string]int{}
	var rootFiles []models.HierarchyNode

	for _, e := range entries {
		if e.IsDir {
			index[e.Path] = len(nodes)
			nodes = append(nodes, models.HierarchyNode{
				Name:     e.Path,
				Type:     "folder",
				Path:     e.Path,
				Children: []models.HierarchyNode{},
			})
		}
	}

	for _, e := range entries {
		if e.IsDir || !isSiteFile(e.Path) {
			continue
		}
		file := models.HierarchyNode{Name: path.Base(e.Path), Type: "file", Path: e.Path}
		dir := path.Dir(e.Path)
		if dir == "." {
			rootFiles = append(rootFiles, file)
			continue
		}
		if i, ok := index[dir]; ok {
			nodes[i].Children = append(nodes[i].Children, file)
		}
	}

	if len(rootFiles) > 0 {
		nodes = append(nodes, models.HierarchyNode{Name: "root", Type: "folder", Path: "", Children: rootFiles})
	}
	return nodes, nil
}

type move struct {
	src, dst string
}

// UpdateHierarchy applies a drag-and-drop reorganization: each folder node is
// created and each of its file children is moved into it. All paths are
// validated before anything changes. It returns the number of files moved.
func (s *Service) UpdateHierarchy(ctx context.Context, nodes []models.HierarchyNode) (int, error) {
	if len(nodes) == 0 {
		return 0, ErrMissingHierarchy
	}

	var dirs []string
	var moves []move
	for _, node := range nodes {
		if node.Type != "folder" {
			continue
		}
		dir, err := storage.CleanDir(node.Path)
		if err != nil {
			slog.Warn("Unauthorized path manipulation attempted", "path", node.Path)
			return 0, err
		}
		dirs = append(dirs, dir)

		for _, child := range node.Children {
			if child.Type != "file" {
				continue
			}
			src, err := storage.Clean(child.Path)
			if err != nil {
				return 0, err
			}
			dst, err := storage.Clean(path.Join(dir, child.Name))
			if err != nil {
				return 0, err
			}
			if path.Dir(dst) != dir {
				return 0, fmt.Errorf("%w: %q", storage.ErrUnauthorizedPath, child.Name)
			}
			if src != dst {
				moves = append(moves, move{src: src, dst: dst})
			}
		}
	}

	for _, dir := range dirs {
		if err := s.store.MkdirAll(ctx, dir); err != nil {
			return 0, fmt.Errorf("failed to create folder %s: %w", dir, err)
		}
	}

	moved := 0
	for _, m := range moves {
		ok, err := s.store.Exists(ctx, m.src)
		if err != nil {
			return moved, fmt.Errorf("failed to check %s: %w", m.src, err)
		}
		if !ok {
			continue
		}
		if err := s.store.Move(ctx, m.src, m.dst); err != nil {
			return moved, err
		}
		moved++
		slog.Debug("Moved file", "from", m.src, "to", m.dst)
		s.publish(models.PreviewEvent{Type: "page.moved", Path: m.dst, From: m.src})
	}

	slog.Info("Hierarchy updated", "folders", len(dirs), "moved", moved)
	return moved, nil
}

func (s *Service) publish(ev models.PreviewEvent) {
	if s.publisher == nil {
		return
	}
	ev.At = time.Now().UTC()
	s.publisher.Publish(ev)
}

func isSiteFile(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range HierarchyExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
