package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitesmith/sitesmith/internal/codegen"
	"github.com/sitesmith/sitesmith/internal/handlers"
	"github.com/sitesmith/sitesmith/internal/history"
	"github.com/sitesmith/sitesmith/internal/images"
	"github.com/sitesmith/sitesmith/internal/maps"
	"github.com/sitesmith/sitesmith/internal/preview"
	"github.com/sitesmith/sitesmith/internal/site"
	"github.com/sitesmith/sitesmith/internal/speech"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the website builder API server",
		Long: `Starts the Sitesmith API on the specified port.

The API generates and edits HTML pages through the configured LLM provider,
resolves stock photos from Pexels and Pixabay, embeds Google Maps, transcribes
voice commands and persists pages under the content root.`,
		Example: `  # Start server on default port 5000
  sitesmith serve

  # Start server on custom port with a config file
  sitesmith serve --port 3001 --config sitesmith.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx := cmd.Context()

			store, err := newStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open content root: %w", err)
			}

			opts := handlers.Options{
				Store:      store,
				MapsAPIKey: cfg.Maps.APIKey,
				CORSOrigin: cfg.CORSOrigin,
			}

			var recorder codegen.Recorder
			if cfg.HistoryDB != "" {
				hist, err := history.Open(cfg.HistoryDB)
				if err != nil {
					return err
				}
				defer hist.Close()
				slog.Info("Modification history enabled", "path", hist.Path())
				recorder = hist
				opts.History = hist
			}

			opts.Codegen, err = codegen.NewServiceFromConfig(cfg, recorder)
			if err != nil {
				return err
			}

			fetcher, sources := newFetcher(cfg)
			rewriter := images.NewRewriter(fetcher, store, nil, cfg.Images.Placeholder)
			opts.Images = rewriter

			opts.Speech = speech.NewService(
				speech.NewGoogleRecognizer(cfg.Speech.APIKey),
				speech.NewFFmpeg(cfg.Speech.FFmpegPath),
				speech.Options{
					Language:   cfg.Speech.Language,
					MaxRetries: cfg.Speech.MaxRetries,
					RetryDelay: cfg.Speech.RetryDelay,
				},
			)

			if cfg.Maps.APIKey != "" {
				geocoder, err := maps.NewGoogleGeocoder(cfg.Maps.APIKey)
				if err != nil {
					return err
				}
				opts.Geocoder = geocoder
			} else {
				slog.Warn("GOOGLEMAPS_KEY not set, map routes will report MISSING_API_KEY")
			}

			hub := preview.NewHub(cfg.CORSOrigin)
			opts.Preview = hub
			opts.Site = site.NewService(store, rewriter, hub)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handlers.New(opts).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Sitesmith API available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"llm", cfg.LLM.Provider,
					"model", cfg.LLM.Model,
					"storage", cfg.Storage.Backend,
					"image_sources", sources,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "5000", "Port to listen on (overrides PORT and the config file)")

	return cmd
}
