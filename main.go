package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kh40/Vintage-Gear-Finder/config"
	"github.com/kh40/Vintage-Gear-Finder/scraper"
	"github.com/kh40/Vintage-Gear-Finder/scraper/ebay"
	"github.com/kh40/Vintage-Gear-Finder/scraper/fetch"
	"github.com/kh40/Vintage-Gear-Finder/scraper/reverb"
	"github.com/kh40/Vintage-Gear-Finder/server"
	"github.com/kh40/Vintage-Gear-Finder/services"
	"github.com/kh40/Vintage-Gear-Finder/storage"
	"github.com/kh40/Vintage-Gear-Finder/utils"
)

func main() {
	once := flag.Bool("once", false, "run a single aggregation pass and exit")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Vintage Gear Finder starting ===")
	logger.Info("Config — terms: %d | max year: %d | min condition: %s | concurrency: %d | rate: %dms",
		len(cfg.Settings().SearchTerms), cfg.Settings().MaxYear, cfg.Settings().MinCondition,
		cfg.MaxConcurrency, cfg.RateLimitMs)

	warnings, errs := cfg.Validate()
	for _, w := range warnings {
		logger.Warn("%s", w)
	}
	for _, e := range errs {
		logger.Error("%s", e)
	}
	if len(errs) > 0 {
		os.Exit(1)
	}

	pacing := time.Duration(cfg.RateLimitMs) * time.Millisecond

	registry := scraper.NewRegistry()
	registry.Register(ebay.New(ebay.Options{
		APIKey: cfg.EbayAPIKey,
		Client: fetch.NewClient(pacing),
		Logger: logger,
	}))

	reverbOpts := reverb.Options{
		APIToken: cfg.ReverbAPIKey,
		Client:   fetch.NewClient(pacing),
		Logger:   logger,
	}
	if cfg.UseBrowser {
		renderer := fetch.NewRenderer(cfg.ChromeBin, pacing)
		defer renderer.Close()
		reverbOpts.Documents = renderer
	}
	registry.Register(reverb.New(reverbOpts))

	aggregator := services.NewAggregator(
		registry,
		services.NewFilterEngine(logger),
		logger,
		cfg.MaxConcurrency,
		cfg.RateLimitMs,
	)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	defer csvWriter.Close()
	sinks := []storage.ListingWriter{csvWriter}

	var recent server.RecentFetcher
	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		defer pgWriter.Close()
		sinks = append(sinks, pgWriter)
		recent = pgWriter
	}

	if *once {
		runOnce(cfg, aggregator, sinks, logger)
		return
	}

	serve(cfg, aggregator, sinks, recent, logger)
}

// runOnce executes a single aggregation pass and prints the summary.
func runOnce(cfg *config.Config, aggregator *services.Aggregator, sinks []storage.ListingWriter, logger *utils.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listings, err := aggregator.Run(ctx, cfg.Criteria())
	if err != nil {
		logger.Error("Run aborted: %v", err)
		os.Exit(1)
	}

	for _, sink := range sinks {
		if err := sink.Write(listings); err != nil {
			logger.Error("Sink write failed: %v", err)
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(listings))

	fmt.Printf("  Done. Results → %s\n\n", cfg.CSVOutputPath)
}

// serve runs the dashboard plus the daily scheduled aggregation until
// interrupted.
func serve(cfg *config.Config, aggregator *services.Aggregator, sinks []storage.ListingWriter, recent server.RecentFetcher, logger *utils.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(ctx, cfg, aggregator, sinks, logger)
	if recent != nil {
		srv.SetRecentFetcher(recent)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CronSpec, func() {
		if _, ok := srv.TriggerRun(ctx); !ok {
			logger.Warn("Scheduled run skipped: a run is already in progress")
		}
	}); err != nil {
		logger.Error("Invalid cron spec %q: %v", cfg.CronSpec, err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("Scheduled runs: %s", cfg.CronSpec)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Shutting down")
}
