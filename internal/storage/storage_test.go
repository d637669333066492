package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "simple page", input: "fruits/index.html", expected: "fruits/index.html"},
		{name: "redundant segments", input: "fruits/./a/../index.html", expected: "fruits/index.html"},
		{name: "backslashes", input: `fruits\index.html`, expected: "fruits/index.html"},
		{name: "parent escape", input: "../../etc/passwd", wantErr: true},
		{name: "nested escape", input: "fruits/../../etc/passwd", wantErr: true},
		{name: "absolute", input: "/etc/passwd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clean(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnauthorizedPath) {
					t.Errorf("Expected ErrUnauthorizedPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCleanDir(t *testing.T) {
	for _, dir := range []string{"", ".", "./"} {
		got, err := CleanDir(dir)
		if err != nil || got != "." {
			t.Errorf("CleanDir(%q) = %q, %v; expected root", dir, got, err)
		}
	}
	if _, err := CleanDir("../x"); !errors.Is(err, ErrUnauthorizedPath) {
		t.Errorf("Expected ErrUnauthorizedPath, got %v", err)
	}
}

func newTestLocal(t *testing.T) (*Local, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "static")
	store, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return store, dir
}

func TestLocalRoundTripIsByteIdentical(t *testing.T) {
	store, _ := newTestLocal(t)
	ctx := context.Background()

	content := []byte("<!DOCTYPE html>\r\n<html lang=\"fr\"><body>Crème brûlée \xe2\x9c\x93</body></html>\n")
	if err := store.Write(ctx, "desserts/index.html", content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := store.Read(ctx, "desserts/index.html")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Expected byte-identical content, got %q", got)
	}
}

func TestLocalRejectsEscapes(t *testing.T) {
	store, dir := newTestLocal(t)
	ctx := context.Background()

	err := store.Write(ctx, "../../etc/passwd", []byte("x"))
	if !errors.Is(err, ErrUnauthorizedPath) {
		t.Fatalf("Expected ErrUnauthorizedPath, got %v", err)
	}

	outside := filepath.Join(filepath.Dir(dir), "etc", "passwd")
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Errorf("Expected nothing written outside the root, stat err = %v", err)
	}

	if err := store.Move(ctx, "a.html", "../b.html"); !errors.Is(err, ErrUnauthorizedPath) {
		t.Errorf("Expected ErrUnauthorizedPath from Move, got %v", err)
	}
}

func TestLocalRejectsSymlinkEscapes(t *testing.T) {
	store, dir := newTestLocal(t)
	ctx := context.Background()

	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := store.Write(ctx, "index.html", []byte("home")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		op   func() error
	}{
		{name: "write", op: func() error { return store.Write(ctx, "link/page.html", []byte("x")) }},
		{name: "write nested", op: func() error { return store.Write(ctx, "link/sub/page.html", []byte("x")) }},
		{name: "read", op: func() error { _, err := store.Read(ctx, "link/secret.txt"); return err }},
		{name: "exists", op: func() error { _, err := store.Exists(ctx, "link/secret.txt"); return err }},
		{name: "mkdir", op: func() error { return store.MkdirAll(ctx, "link/sub") }},
		{name: "move out", op: func() error { return store.Move(ctx, "index.html", "link/index.html") }},
		{name: "move in", op: func() error { return store.Move(ctx, "link/secret.txt", "stolen.txt") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrUnauthorizedPath) {
				t.Errorf("Expected ErrUnauthorizedPath, got %v", err)
			}
		})
	}

	entries, err := os.ReadDir(outside)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only secret.txt outside the root, got %v", entries)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		t.Errorf("Expected index.html to stay in place: %v", err)
	}
}

func TestLocalReadMissing(t *testing.T) {
	store, _ := newTestLocal(t)
	if _, err := store.Read(context.Background(), "missing.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalMoveAndWalk(t *testing.T) {
	store, _ := newTestLocal(t)
	ctx := context.Background()

	if err := store.Write(ctx, "index.html", []byte("home")); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(ctx, "fruits/apple.html", []byte("apple")); err != nil {
		t.Fatal(err)
	}
	if err := store.MkdirAll(ctx, "voyages"); err != nil {
		t.Fatal(err)
	}

	if err := store.Move(ctx, "fruits/apple.html", "voyages/apple.html"); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	exists, err := store.Exists(ctx, "fruits/apple.html")
	if err != nil || exists {
		t.Errorf("Expected source to be gone, exists=%v err=%v", exists, err)
	}

	entries, err := store.Walk(ctx)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	expected := []Entry{
		{Path: "fruits", IsDir: true},
		{Path: "index.html"},
		{Path: "voyages", IsDir: true},
		{Path: "voyages/apple.html"},
	}
	if len(entries) != len(expected) {
		t.Fatalf("Expected %d entries, got %d: %+v", len(expected), len(entries), entries)
	}
	for i := range expected {
		if entries[i] != expected[i] {
			t.Errorf("Entry %d: expected %+v, got %+v", i, expected[i], entries[i])
		}
	}
}

func TestLocalMoveMissingSource(t *testing.T) {
	store, _ := newTestLocal(t)
	if err := store.Move(context.Background(), "nope.html", "x/nope.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
