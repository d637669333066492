package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/images"
	"github.com/sitesmith/sitesmith/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// loadConfig reads the configuration and installs the process-wide logger
// and trace propagator.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return cfg, nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "s3":
		s3cfg := cfg.Storage.S3
		return storage.NewS3(ctx, storage.S3Config{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			Prefix:          s3cfg.Prefix,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			UsePathStyle:    s3cfg.UsePathStyle,
		})
	case "local":
		return storage.NewLocal(cfg.ContentRoot)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// newFetcher builds the image pipeline over every provider that has a key.
// It also returns the provider names in search order.
func newFetcher(cfg *config.Config) (*images.Fetcher, []string) {
	client := images.NewHTTPClient()

	var sources []images.Source
	if cfg.Images.PexelsAPIKey != "" {
		sources = append(sources, images.NewPexels(cfg.Images.PexelsAPIKey, client))
	}
	if cfg.Images.PixabayAPIKey != "" {
		sources = append(sources, images.NewPixabay(cfg.Images.PixabayAPIKey, client))
	}
	if len(sources) == 0 {
		slog.Warn("No stock photo provider configured, images will resolve to placeholders")
	}

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, string(src.ID()))
	}

	refiner := images.NewRefiner(cfg.Images.VocabularyOrDefault())
	fetcher := images.NewFetcher(refiner, images.Options{
		Attempts:   cfg.Images.Attempts,
		PerPage:    cfg.Images.PerPage,
		MinMatches: cfg.Images.MinMatches,
	}, sources...)

	return fetcher, names
}
