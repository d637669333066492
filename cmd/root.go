package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sitesmith",
		Short: "Backend for an AI-assisted website builder",
		Long: `Sitesmith turns natural-language prompts into complete HTML pages.

It serves the builder API (page generation, stock photos, maps, voice commands
and content-root management) and ships tools for resolving images and evaluating
the image relevance pipeline from the command line.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default sitesmith.yaml when present)")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newImageCmd(&configPath))
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newEvalCmd(&configPath))

	return cmd
}
