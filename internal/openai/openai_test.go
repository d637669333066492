package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitesmith/sitesmith/internal/providers"
)

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer groq-key" {
			t.Errorf("Unexpected Authorization header %q", r.Header.Get("Authorization"))
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "llama3-70b-8192" || req.MaxTokens != 2000 || req.Temperature != 0.7 {
			t.Errorf("Unexpected request %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "make a page" {
			t.Errorf("Unexpected messages %+v", req.Messages)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"<html></html>"}}]}`))
	}))
	defer server.Close()

	p := New(server.URL+"/", "groq-key", server.Client())
	out, err := p.Complete(context.Background(), providers.Config{
		Model:       "llama3-70b-8192",
		Temperature: 0.7,
		MaxTokens:   2000,
		System:      "You are a web developer.",
		Prompt:      "make a page",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "<html></html>" {
		t.Errorf("Expected content, got %q", out)
	}
}

func TestCompleteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := New(server.URL, "key", server.Client()).Complete(context.Background(), providers.Config{Prompt: "x"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429 StatusError, got %v", err)
	}
	if !providers.IsRetryable(err) {
		t.Error("Expected rate limit to be retryable")
	}

	_, err = New(server.URL, "", server.Client()).Complete(context.Background(), providers.Config{Prompt: "x"})
	if !errors.Is(err, providers.ErrMissingAPIKey) {
		t.Errorf("Expected ErrMissingAPIKey, got %v", err)
	}
}
