package providers

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when a hosted provider has no key configured.
var ErrMissingAPIKey = errors.New("LLM API key not configured")

// Config represents the configuration for a single completion
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	Prompt      string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	Complete(ctx context.Context, config Config) (string, error)
}

// StatusError is a non-2xx response from a provider API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received non-200 status code: %d - %s", e.StatusCode, e.Body)
}
