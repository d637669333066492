package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores the content root on the filesystem
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content root: %w", err)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute content root directory.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) resolve(name string) (string, error) {
	cleaned, err := Clean(name)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(cleaned), nil
}

// openRoot confines every operation to the content root, following
// symlinks only while they stay inside it.
func (l *Local) openRoot() (*os.Root, error) {
	root, err := os.OpenRoot(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to open content root: %w", err)
	}
	return root, nil
}

// rootError maps os.Root failures onto the store's sentinel errors.
func rootError(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	// os.Root does not export its escape error
	case strings.Contains(err.Error(), "path escapes from parent"):
		return fmt.Errorf("%w: %q", ErrUnauthorizedPath, name)
	default:
		return err
	}
}

func mkdirAll(root *os.Root, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	current := ""
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		current = filepath.Join(current, part)
		if err := root.Mkdir(current, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	// an existing component may be a symlink leading out of the root
	info, err := root.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (l *Local) Write(_ context.Context, name string, data []byte) error {
	rel, err := l.resolve(name)
	if err != nil {
		return err
	}
	root, err := l.openRoot()
	if err != nil {
		return err
	}
	defer root.Close()

	if err := mkdirAll(root, filepath.Dir(rel)); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, rootError(name, err))
	}
	f, err := root.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, rootError(name, err))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (l *Local) Read(_ context.Context, name string) ([]byte, error) {
	rel, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	root, err := l.openRoot()
	if err != nil {
		return nil, err
	}
	defer root.Close()

	info, err := root.Stat(rel)
	if err != nil {
		return nil, rootError(name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	f, err := root.Open(rel)
	if err != nil {
		return nil, rootError(name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	rel, err := l.resolve(name)
	if err != nil {
		return false, err
	}
	root, err := l.openRoot()
	if err != nil {
		return false, err
	}
	defer root.Close()

	if _, err := root.Stat(rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, rootError(name, err)
	}
	return true, nil
}

func (l *Local) MkdirAll(_ context.Context, dir string) error {
	cleaned, err := CleanDir(dir)
	if err != nil {
		return err
	}
	if cleaned == "." {
		return nil
	}
	root, err := l.openRoot()
	if err != nil {
		return err
	}
	defer root.Close()

	if err := mkdirAll(root, filepath.FromSlash(cleaned)); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, rootError(dir, err))
	}
	return nil
}

// Move resolves both ends through the root before renaming.
func (l *Local) Move(_ context.Context, src, dst string) error {
	from, err := l.resolve(src)
	if err != nil {
		return err
	}
	to, err := l.resolve(dst)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	root, err := l.openRoot()
	if err != nil {
		return err
	}
	defer root.Close()

	if _, err := root.Lstat(from); err != nil {
		return rootError(src, err)
	}
	if err := mkdirAll(root, filepath.Dir(to)); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, rootError(dst, err))
	}
	if err := os.Rename(filepath.Join(l.root, from), filepath.Join(l.root, to)); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

// Walk lists every file and directory under the root in lexical order.
func (l *Local) Walk(_ context.Context) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == l.root {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: filepath.ToSlash(rel), IsDir: d.IsDir()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk content root: %w", err)
	}
	return entries, nil
}
