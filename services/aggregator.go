package services

import (
	"context"

	"github.com/kh40/Vintage-Gear-Finder/models"
	"github.com/kh40/Vintage-Gear-Finder/scraper"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

// Aggregator runs one aggregation pass: every search term against every
// registered adapter, accumulate, filter once, return the batch. It holds
// no state across runs, so concurrent runs are independent.
type Aggregator struct {
	registry *scraper.Registry
	filter   *FilterEngine
	logger   *utils.Logger

	maxConcurrency int
	rateLimitMs    int
}

// NewAggregator creates an Aggregator. maxConcurrency 1 reproduces the
// strictly sequential reference behaviour; higher values run terms in
// parallel while each marketplace's fetch client keeps its own pacing.
func NewAggregator(registry *scraper.Registry, filter *FilterEngine, logger *utils.Logger, maxConcurrency, rateLimitMs int) *Aggregator {
	return &Aggregator{
		registry:       registry,
		filter:         filter,
		logger:         logger.WithComponent("aggregator"),
		maxConcurrency: maxConcurrency,
		rateLimitMs:    rateLimitMs,
	}
}

// Run queries every adapter for every search term, in term order, and
// returns the filtered batch. Adapter failures are logged and count as zero
// results for that term/adapter pair; they never abort the run. On
// cancellation the partial batch is discarded and ctx's error returned.
func (a *Aggregator) Run(ctx context.Context, criteria models.SearchCriteria) ([]models.Listing, error) {
	adapters := a.registry.Adapters()
	terms := criteria.SearchTerms

	a.logger.Info("Starting run: %d terms × %d adapters", len(terms), len(adapters))

	// Per-term buckets, stitched back together in term order so output is
	// deterministic regardless of completion order.
	buckets := make([][]models.Listing, len(terms))

	pool := utils.NewWorkerPool(ctx, a.maxConcurrency, a.rateLimitMs)
	for i, term := range terms {
		i, term := i, term
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			buckets[i] = a.fetchTerm(ctx, term, adapters)
		})
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		a.logger.Warn("Run cancelled — discarding partial results")
		return nil, err
	}

	var all []models.Listing
	for _, bucket := range buckets {
		all = append(all, bucket...)
	}
	a.logger.Info("Accumulated %d listings", len(all))

	filtered := a.filter.Filter(all, criteria)
	a.logger.Info("Filter kept %d of %d listings", len(filtered), len(all))
	return filtered, nil
}

func (a *Aggregator) fetchTerm(ctx context.Context, term string, adapters []scraper.Adapter) []models.Listing {
	var results []models.Listing
	for _, adapter := range adapters {
		if ctx.Err() != nil {
			return results
		}

		listings, err := adapter.Fetch(ctx, term)
		if err != nil {
			a.logger.Error("%s fetch failed for %q: %v", adapter.Marketplace(), term, err)
			continue
		}
		a.logger.Info("Found %d %s results for %q", len(listings), adapter.Marketplace(), term)
		results = append(results, listings...)
	}
	return results
}
