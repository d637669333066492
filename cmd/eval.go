package cmd

import (
	"context"

	"github.com/sitesmith/sitesmith/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Image relevance evaluation tools",
		Long: `Evaluation tools for measuring how often the stock-photo pipeline finds a
relevant image, how often it falls back and how long lookups take.`,
	}

	newResolver := func(ctx context.Context) (evalcmd.Resolver, []string, error) {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			return nil, nil, err
		}
		fetcher, sources := newFetcher(cfg)
		return fetcher, sources, nil
	}

	cmd.AddCommand(evalcmd.NewRunCmd(newResolver))
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
