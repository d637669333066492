package evalcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ResolverFactory builds the image pipeline the run command evaluates
type ResolverFactory func(ctx context.Context) (Resolver, []string, error)

// NewRunCmd creates the run command for evaluating the image pipeline over a query set
func NewRunCmd(newResolver ResolverFactory) *cobra.Command {
	var datasetPath string
	var outputDir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the image relevance pipeline over a query set",
		Long: `Resolve every query in a dataset through the configured stock-photo providers
and record the outcome (relevant, fallback or empty), the chosen image and the latency.

Results are written as results.json and results.parquet in the output directory.`,
		Example: `  # Evaluate a YAML query set with the default concurrency
  sitesmith eval run --dataset queries.yaml --output ./eval_results

  # Evaluate a JSONL query set with 8 concurrent lookups
  sitesmith eval run --dataset queries.jsonl --output ./eval_results --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}

			resolver, sources, err := newResolver(cmd.Context())
			if err != nil {
				return err
			}

			results, err := executeRun(cmd.Context(), resolver, sources, datasetPath, outputDir, concurrency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(out, results.Summary)
			fmt.Fprintf(out, "\nResults saved to: %s\n", outputDir)
			fmt.Fprintf(out, "\nGenerate detailed report with:\n")
			fmt.Fprintf(out, "  sitesmith eval report --results %s\n", outputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to query set (.yaml or .jsonl)")
	cmd.Flags().StringVar(&outputDir, "output", "./eval_results", "Output directory for results")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of queries resolved in parallel")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the report command for printing saved results
func NewReportCmd() *cobra.Command {
	var resultsDir string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report for a previous evaluation run",
		Example: `  sitesmith eval report --results ./eval_results
  sitesmith eval report --results ./eval_results --format csv > results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsDir, format)
		},
	}

	cmd.Flags().StringVar(&resultsDir, "results", "./eval_results", "Directory containing results.json or results.parquet")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, or csv)")

	return cmd
}
