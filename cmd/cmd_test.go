package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "image", "clean", "eval"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("Expected %s subcommand, got %v (%v)", name, c, err)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("Expected persistent --config flag")
	}
}

func TestCleanCmd(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     func(t *testing.T) []string
		contains []string
		excludes []string
	}{
		{
			name:     "stdin with explicit title",
			stdin:    "Here you go:\n```html\n<html><body><h1>Hi</h1></body></html>\n```",
			args:     func(t *testing.T) []string { return []string{"clean", "--title", "contact"} },
			contains: []string{"<!DOCTYPE html>", "<title>contact - My Website</title>", "<h1>Hi</h1>"},
			excludes: []string{"```", "Here you go"},
		},
		{
			name: "file name is the default title",
			args: func(t *testing.T) []string {
				path := filepath.Join(t.TempDir(), "about.txt")
				if err := os.WriteFile(path, []byte("<body><p>About us</p></body>"), 0644); err != nil {
					t.Fatal(err)
				}
				return []string{"clean", path}
			},
			contains: []string{"<title>about - My Website</title>", "<p>About us</p>"},
		},
		{
			name:     "stdin defaults to index",
			stdin:    "<p>Hello</p>",
			args:     func(t *testing.T) []string { return []string{"clean"} },
			contains: []string{"<title>index - My Website</title>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args(t)...)
			if err != nil {
				t.Fatalf("clean error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("Expected output not to contain %q, got:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestCleanCmdMissingFile(t *testing.T) {
	if _, err := execute(t, "", "clean", filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestImageCmdWithoutProviders(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PEXELS_API_KEY", "")
	t.Setenv("PIXABAY_API_KEY", "")

	out, err := execute(t, "", "image", "fresh", "bread", "--page", "menu")
	if err != nil {
		t.Fatalf("image error = %v", err)
	}

	var res struct {
		Query   string `json:"query"`
		Outcome string `json:"outcome"`
		Result  struct {
			URL string `json:"url"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	if res.Query != "fresh bread" || res.Outcome != "empty" || res.Result.URL != "" {
		t.Errorf("Unexpected resolution: %+v", res)
	}
}

func TestImageCmdRequiresQuery(t *testing.T) {
	if _, err := execute(t, "", "image"); err == nil {
		t.Error("Expected error without a query")
	}
}
