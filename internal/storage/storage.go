package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrUnauthorizedPath is returned for any path that resolves outside the content root.
	ErrUnauthorizedPath = errors.New("unauthorized path")
	ErrNotFound         = errors.New("file not found")
)

// Entry is a file or directory under the content root, with a slash-separated relative path.
type Entry struct {
	Path  string
	IsDir bool
}

// Store persists site files under a content root. Every name is relative
// to the root and is confined to it.
type Store interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	MkdirAll(ctx context.Context, dir string) error
	Move(ctx context.Context, src, dst string) error
	Walk(ctx context.Context) ([]Entry, error)
}

// Clean normalizes a relative name and rejects anything that escapes the root.
func Clean(name string) (string, error) {
	n := strings.ReplaceAll(name, "\\", "/")
	if n == "" || strings.HasPrefix(n, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnauthorizedPath, name)
	}

	cleaned := path.Clean(n)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnauthorizedPath, name)
	}
	if !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", fmt.Errorf("%w: %q", ErrUnauthorizedPath, name)
	}
	return cleaned, nil
}

// CleanDir is Clean for directories, where "" and "." name the root itself.
func CleanDir(dir string) (string, error) {
	d := strings.TrimSuffix(strings.ReplaceAll(dir, "\\", "/"), "/")
	if d == "" || d == "." {
		return ".", nil
	}
	return Clean(d)
}
