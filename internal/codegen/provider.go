package codegen

import (
	"fmt"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/gemini"
	"github.com/sitesmith/sitesmith/internal/ollama"
	"github.com/sitesmith/sitesmith/internal/openai"
	"github.com/sitesmith/sitesmith/internal/providers"
)

// NewProvider builds the configured LLM client wrapped in its retry policy.
func NewProvider(cfg config.LLMConfig) (providers.Provider, error) {
	var p providers.Provider
	switch cfg.Provider {
	case "groq", "openai":
		p = openai.New(cfg.BaseURL, cfg.APIKey, nil)
	case "ollama":
		p = ollama.New(cfg.BaseURL, nil)
	case "gemini":
		p = gemini.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	policy := providers.ExponentialPolicy(cfg.Retry.MaxAttempts, cfg.Retry.InitialInterval, cfg.Retry.MaxInterval)
	return providers.WithRetry(p, policy, cfg.Provider), nil
}

// NewServiceFromConfig wires a Service from the loaded configuration.
func NewServiceFromConfig(cfg *config.Config, recorder Recorder) (*Service, error) {
	provider, err := NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return NewService(provider, Options{
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		Language:       cfg.ContentLanguage,
		FontAwesomeKit: cfg.FontAwesomeKit,
		Recorder:       recorder,
	}), nil
}
