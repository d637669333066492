package evaluation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/sitesmith/sitesmith/internal/images"
)

const (
	ResultsJSON    = "results.json"
	ResultsParquet = "results.parquet"
)

// Result is the outcome of one dataset item. It is also the parquet row.
type Result struct {
	ID         string  `json:"id" parquet:"id"`
	Query      string  `json:"query" parquet:"query"`
	Page       string  `json:"page,omitempty" parquet:"page"`
	Folder     string  `json:"folder,omitempty" parquet:"folder"`
	Refined    string  `json:"refined" parquet:"refined"`
	Outcome    string  `json:"outcome" parquet:"outcome"`
	Expect     string  `json:"expect,omitempty" parquet:"expect"`
	Passed     bool    `json:"passed" parquet:"passed"`
	URL        string  `json:"url" parquet:"url"`
	Source     string  `json:"source" parquet:"source"`
	Score      float64 `json:"score" parquet:"score"`
	DurationMS int64   `json:"duration_ms" parquet:"duration_ms"`
	Error      string  `json:"error,omitempty" parquet:"error"`
}

// Results represents all evaluation results
type Results struct {
	Sources     []string  `json:"sources"`
	GeneratedAt time.Time `json:"generated_at"`
	Results     []Result  `json:"results"`
	Summary     *Summary  `json:"summary"`
}

// Summary contains aggregate metrics
type Summary struct {
	Total          int            `json:"total"`
	Relevant       int            `json:"relevant"`
	Fallback       int            `json:"fallback"`
	Empty          int            `json:"empty"`
	Failed         int            `json:"failed"`
	Passed         int            `json:"passed"`
	RelevantRate   float64        `json:"relevant_rate"`
	PassRate       float64        `json:"pass_rate"`
	AverageScore   float64        `json:"average_score"`
	BySource       map[string]int `json:"by_source"`
	AverageLatency float64        `json:"average_latency_ms"`
	MedianLatency  float64        `json:"median_latency_ms"`
	MaxLatency     int64          `json:"max_latency_ms"`
}

// Score weights a pipeline outcome: a relevant hit is worth 1, a fallback half.
func Score(outcome string) float64 {
	switch outcome {
	case string(images.OutcomeRelevant):
		return 1
	case string(images.OutcomeFallback):
		return 0.5
	default:
		return 0
	}
}

// Summarize computes aggregate metrics over results.
func Summarize(results []Result) *Summary {
	summary := &Summary{
		Total:    len(results),
		BySource: make(map[string]int),
	}
	if len(results) == 0 {
		return summary
	}

	var totalScore float64
	latencies := make([]int64, 0, len(results))

	for _, r := range results {
		latencies = append(latencies, r.DurationMS)
		if r.Passed {
			summary.Passed++
		}
		if r.Error != "" {
			summary.Failed++
			continue
		}

		switch r.Outcome {
		case string(images.OutcomeRelevant):
			summary.Relevant++
		case string(images.OutcomeFallback):
			summary.Fallback++
		default:
			summary.Empty++
		}
		if r.Source != "" {
			summary.BySource[r.Source]++
		}
		totalScore += r.Score
	}

	n := float64(len(results))
	summary.RelevantRate = float64(summary.Relevant) / n
	summary.PassRate = float64(summary.Passed) / n
	summary.AverageScore = totalScore / n

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var total int64
	for _, l := range latencies {
		total += l
	}
	summary.AverageLatency = float64(total) / n
	mid := len(latencies) / 2
	if len(latencies)%2 == 0 {
		summary.MedianLatency = float64(latencies[mid-1]+latencies[mid]) / 2
	} else {
		summary.MedianLatency = float64(latencies[mid])
	}
	summary.MaxLatency = latencies[len(latencies)-1]

	return summary
}

// SaveResults writes results.json and results.parquet into outputDir.
func SaveResults(results *Results, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(filepath.Join(outputDir, ResultsJSON))
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if err := parquet.WriteFile(filepath.Join(outputDir, ResultsParquet), results.Results); err != nil {
		return fmt.Errorf("failed to write parquet results: %w", err)
	}

	return nil
}

// LoadResults loads results.json from resultsDir. When only the parquet
// export is present the rows are read from it and the summary recomputed.
func LoadResults(resultsDir string) (*Results, error) {
	file, err := os.Open(filepath.Join(resultsDir, ResultsJSON))
	if errors.Is(err, os.ErrNotExist) {
		return loadParquetResults(filepath.Join(resultsDir, ResultsParquet))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer file.Close()

	var results Results
	if err := json.NewDecoder(file).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	if results.Summary == nil {
		results.Summary = Summarize(results.Results)
	}

	return &results, nil
}

func loadParquetResults(path string) (*Results, error) {
	rows, err := parquet.ReadFile[Result](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet results: %w", err)
	}

	return &Results{
		Results: rows,
		Summary: Summarize(rows),
	}, nil
}
