package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/sitesmith/sitesmith/internal/evaluation"
)

func executeReport(w io.Writer, resultsDir, format string) error {
	results, err := evaluation.LoadResults(resultsDir)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		printTextReport(w, results)
		return nil
	case "json":
		return printJSONReport(w, results)
	case "csv":
		return printCSVReport(w, results)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(w io.Writer, summary *evaluation.Summary) {
	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintln(w, "Evaluation Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Total Queries:      %d\n", summary.Total)
	fmt.Fprintf(w, "Relevant:           %d\n", summary.Relevant)
	fmt.Fprintf(w, "Fallback:           %d\n", summary.Fallback)
	fmt.Fprintf(w, "Empty:              %d\n", summary.Empty)
	fmt.Fprintf(w, "Failed:             %d\n", summary.Failed)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Relevant Rate:      %.2f%%\n", summary.RelevantRate*100)
	fmt.Fprintf(w, "Pass Rate:          %.2f%%\n", summary.PassRate*100)
	fmt.Fprintf(w, "Average Score:      %.2f\n", summary.AverageScore)
	fmt.Fprintf(w, "Average Latency:    %.0fms\n", summary.AverageLatency)
	fmt.Fprintf(w, "Median Latency:     %.0fms\n", summary.MedianLatency)
	fmt.Fprintf(w, "Max Latency:        %dms\n", summary.MaxLatency)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Images By Source:")

	var sources []string
	for source := range summary.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		fmt.Fprintf(w, "  %s: %d\n", source, summary.BySource[source])
	}
	fmt.Fprintln(w, "========================================")
}

func printTextReport(w io.Writer, results *evaluation.Results) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Image Relevance Evaluation Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Sources:   %v\n", results.Sources)
	if !results.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "Generated: %s\n", results.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	printSummary(w, results.Summary)

	fmt.Fprintln(w, "\nDetailed Results:")
	fmt.Fprintln(w, "========================================")

	for i, result := range results.Results {
		fmt.Fprintf(w, "\n[%d] %s: %q\n", i+1, result.ID, result.Query)

		if result.Error != "" {
			fmt.Fprintf(w, "  ❌ Error: %s\n", result.Error)
			continue
		}

		fmt.Fprintf(w, "  Refined: %s\n", result.Refined)
		fmt.Fprintf(w, "  Outcome: %s (%dms)\n", result.Outcome, result.DurationMS)
		if result.URL != "" {
			fmt.Fprintf(w, "  Image:   %s [%s]\n", truncate(result.URL, 80), result.Source)
		}
		if !result.Passed {
			fmt.Fprintf(w, "  ❌ Expected %s\n", result.Expect)
		}
	}
}

func printJSONReport(w io.Writer, results *evaluation.Results) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func printCSVReport(w io.Writer, results *evaluation.Results) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Query", "Refined", "Outcome", "Expect", "Passed", "Score", "Source", "URL", "Duration MS", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range results.Results {
		row := []string{
			result.ID,
			result.Query,
			result.Refined,
			result.Outcome,
			result.Expect,
			strconv.FormatBool(result.Passed),
			fmt.Sprintf("%.2f", result.Score),
			result.Source,
			result.URL,
			strconv.FormatInt(result.DurationMS, 10),
			result.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
