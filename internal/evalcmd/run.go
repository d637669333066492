package evalcmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sitesmith/sitesmith/internal/evaluation"
	"github.com/sitesmith/sitesmith/internal/images"
	"github.com/sitesmith/sitesmith/internal/models"
)

// Resolver runs one query through the image pipeline
type Resolver interface {
	Resolve(ctx context.Context, q models.ImageQuery, imageID string) images.Resolution
}

func executeRun(ctx context.Context, resolver Resolver, sources []string, datasetPath, outputDir string, concurrency int) (*evaluation.Results, error) {
	slog.Info("Starting evaluation run", "dataset", datasetPath, "sources", sources, "concurrency", concurrency)

	dataset, err := evaluation.LoadDataset(datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "items", len(dataset.Items))

	results := &evaluation.Results{
		Sources:     sources,
		GeneratedAt: time.Now().UTC(),
		Results:     runItems(ctx, resolver, dataset.Items, concurrency),
	}
	results.Summary = evaluation.Summarize(results.Results)

	slog.Info("Saving results", "output", outputDir)
	if err := evaluation.SaveResults(results, outputDir); err != nil {
		return nil, fmt.Errorf("failed to save results: %w", err)
	}

	return results, nil
}

// runItems resolves items with at most concurrency lookups in flight.
// Results keep dataset order.
func runItems(ctx context.Context, resolver Resolver, items []evaluation.DatasetItem, concurrency int) []evaluation.Result {
	results := make([]evaluation.Result, len(items))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, item evaluation.DatasetItem) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Debug("Processing item", "id", item.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(items)))
			results[idx] = processItem(ctx, resolver, item)
		}(i, item)
	}

	wg.Wait()
	return results
}

func processItem(ctx context.Context, resolver Resolver, item evaluation.DatasetItem) evaluation.Result {
	result := evaluation.Result{
		ID:     item.ID,
		Query:  item.Query,
		Page:   item.PageName,
		Folder: item.FolderName,
		Expect: item.Expect,
	}

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	res := resolver.Resolve(ctx, item.ImageQuery, item.ImageID)
	result.DurationMS = time.Since(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Refined = res.Refined
	result.Outcome = string(res.Outcome)
	result.URL = res.Result.URL
	result.Source = res.Result.Source
	result.Score = evaluation.Score(result.Outcome)
	result.Passed = item.Expect == "" || item.Expect == result.Outcome

	return result
}
