package images

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sitesmith/sitesmith/internal/metrics"
	"github.com/sitesmith/sitesmith/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Outcome describes how a resolution ended
type Outcome string

const (
	OutcomeRelevant Outcome = "relevant"
	OutcomeFallback Outcome = "fallback"
	OutcomeEmpty    Outcome = "empty"
)

// Resolution is the result of one pipeline run plus the diagnostics the
// evaluation command and metrics need.
type Resolution struct {
	Result  models.ImageResult `json:"result"`
	Outcome Outcome            `json:"outcome"`
	Refined string             `json:"refined"`
	Query   string             `json:"query"`
}

// Options tunes the search loop
type Options struct {
	Attempts   int
	PerPage    int
	MinMatches int
}

// Fetcher resolves free-text queries to a single stock photo.
// The first source is searched on its own before any alternative query is
// tried; alternatives go through every source in order.
type Fetcher struct {
	sources []Source
	refiner *Refiner
	opts    Options
}

// NewFetcher creates a new image fetcher
func NewFetcher(refiner *Refiner, opts Options, sources ...Source) *Fetcher {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 3
	}
	if opts.MinMatches <= 0 {
		opts.MinMatches = 2
	}
	if refiner == nil {
		refiner = NewRefiner(DefaultVocabulary())
	}
	return &Fetcher{sources: sources, refiner: refiner, opts: opts}
}

// FetchImage returns the first relevant image for query, the first image seen
// when none is relevant, or the empty result when no source returned anything.
func (f *Fetcher) FetchImage(ctx context.Context, query, imageID, pageName, folderName string) models.ImageResult {
	return f.Resolve(ctx, models.ImageQuery{Query: query, PageName: pageName, FolderName: folderName}, imageID).Result
}

// Resolve runs the full pipeline for q.
func (f *Fetcher) Resolve(ctx context.Context, q models.ImageQuery, imageID string) Resolution {
	ctx, span := otel.Tracer("sitesmith/images").Start(ctx, "images.Resolve")
	defer span.End()

	refined := f.refiner.Refine(q.Query, q.PageName, q.FolderName)
	span.SetAttributes(
		attribute.String("image.query", q.Query),
		attribute.String("image.refined", refined),
		attribute.String("image.id", imageID),
	)

	res := Resolution{Query: q.Query, Refined: refined}
	run := &searchRun{
		fetcher:  f,
		basePage: BasePage(imageID),
		searched: make(map[searchKey]struct{}),
	}

	if len(f.sources) > 0 {
		if c, ok := run.search(ctx, refined, f.sources[0]); ok {
			return f.finish(span, res, c, OutcomeRelevant)
		}
	}

	slog.Debug("No relevant image on primary source, trying alternatives", "query", refined, "image_id", imageID)

	// synonyms are refined without page context so they broaden the search
	for i, alt := range f.refiner.Alternatives(q.Query, q.PageName, q.FolderName) {
		altRefined := refined
		if i > 0 {
			altRefined = f.refiner.Refine(alt, "", "")
		}
		for _, src := range f.sources {
			if c, ok := run.search(ctx, altRefined, src); ok {
				return f.finish(span, res, c, OutcomeRelevant)
			}
		}
	}

	if run.fallback != nil {
		slog.Info("Using fallback image", "query", refined, "url", run.fallback.URL, "source", run.fallback.Source)
		return f.finish(span, res, *run.fallback, OutcomeFallback)
	}

	slog.Warn("No image found", "query", q.Query, "refined", refined)
	res.Result = models.EmptyImageResult()
	res.Outcome = OutcomeEmpty
	metrics.ImageResolutions.WithLabelValues(string(OutcomeEmpty)).Inc()
	span.SetAttributes(attribute.String("image.outcome", string(OutcomeEmpty)))
	return res
}

func (f *Fetcher) finish(span trace.Span, res Resolution, c models.ImageCandidate, outcome Outcome) Resolution {
	res.Result = models.ResultFromCandidate(c)
	res.Outcome = outcome
	metrics.ImageResolutions.WithLabelValues(string(outcome)).Inc()
	span.SetAttributes(
		attribute.String("image.outcome", string(outcome)),
		attribute.String("image.source", string(c.Source)),
	)
	return res
}

type searchKey struct {
	query    string
	provider models.ProviderID
}

// searchRun carries the per-resolution state shared by every attempt
type searchRun struct {
	fetcher  *Fetcher
	basePage int
	fallback *models.ImageCandidate
	searched map[searchKey]struct{}
}

// search runs up to Attempts pages of query against src and returns the
// first relevant candidate.
func (r *searchRun) search(ctx context.Context, query string, src Source) (models.ImageCandidate, bool) {
	if query == "" {
		return models.ImageCandidate{}, false
	}
	key := searchKey{query: query, provider: src.ID()}
	if _, done := r.searched[key]; done {
		return models.ImageCandidate{}, false
	}
	r.searched[key] = struct{}{}

	keywords := r.fetcher.refiner.Keywords(query, "", "")
	opts := r.fetcher.opts

	for attempt := 0; attempt < opts.Attempts; attempt++ {
		if ctx.Err() != nil {
			return models.ImageCandidate{}, false
		}

		page := r.basePage + attempt
		candidates, err := src.Search(ctx, query, page, opts.PerPage)
		if err != nil {
			if errors.Is(err, ErrProviderUnavailable) {
				metrics.ImageProviderRequests.WithLabelValues(string(src.ID()), "unavailable").Inc()
				slog.Debug("Image source unavailable", "source", src.ID())
				return models.ImageCandidate{}, false
			}
			metrics.ImageProviderRequests.WithLabelValues(string(src.ID()), "error").Inc()
			slog.Warn("Image search failed", "source", src.ID(), "query", query, "page", page, "error", err)
			continue
		}
		if len(candidates) == 0 {
			metrics.ImageProviderRequests.WithLabelValues(string(src.ID()), "empty").Inc()
			slog.Debug("No images returned", "source", src.ID(), "query", query, "page", page)
			continue
		}
		metrics.ImageProviderRequests.WithLabelValues(string(src.ID()), "ok").Inc()

		if r.fallback == nil {
			first := candidates[0]
			r.fallback = &first
		}

		for _, c := range candidates {
			if IsRelevant(c.Tags, keywords, opts.MinMatches) {
				slog.Info("Found relevant image", "source", src.ID(), "query", query, "page", page, "url", c.URL)
				return c, true
			}
		}
	}
	return models.ImageCandidate{}, false
}
