package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"estate-scraper/config"
	"estate-scraper/models"
	"estate-scraper/scraper"
	"estate-scraper/scraper/estateam"
	"estate-scraper/scraper/listam"
	"estate-scraper/scraper/realestateam"
	"estate-scraper/services"
	"estate-scraper/storage"
	"estate-scraper/utils"
)

func main() {
	cfg := config.Load()

	logger, err := utils.NewLoggerWithConfig(utils.LoggerConfig{
		Level:         cfg.LogLevel,
		FluentEnabled: cfg.FluentEnabled,
		FluentHost:    cfg.FluentHost,
		FluentPort:    cfg.FluentPort,
	})
	if err != nil {
		logger.Warn("Fluent Bit unavailable, logging to console only: %v", err)
	}

	code := run(cfg, logger)
	_ = logger.Close()
	os.Exit(code)
}

func run(cfg *config.Config, logger *utils.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New()
	logger.Info("=== Housing scraper starting (run %s) ===", runID)
	logger.Info("Config: sites %v | limit/category: %d | max pages: %d | wait: %v | rate: %dms",
		cfg.Sites, cfg.LimitPerCategory, cfg.MaxPages, cfg.WaitTimeout, cfg.RateLimitMs)

	dataset, err := storage.ReadTable(cfg.DatasetPath)
	if err != nil {
		logger.Error("Failed to read dataset: %v", err)
		return 1
	}
	processed := utils.NewLinkSet(dataset.Column("links")...)

	var mirror storage.ListingWriter
	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), runID)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			return 1
		}
		defer pgWriter.Close()
		mirror = pgWriter
		seedLinks(processed, pgWriter, logger)
	}
	logger.Info("%d listings already processed in %s", processed.Size(), cfg.DatasetPath)

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	fetcher := services.NewCollyRateFetcher(cfg.RatesURL, cfg.WaitTimeout)
	rates, err := services.LoadRateTable(ctx, fetcher, cfg.RateBases, retry, logger)
	if err != nil {
		logger.Error("Failed to load exchange rates: %v", err)
		return 1
	}

	assembler, err := services.NewAssembler(logger)
	if err != nil {
		logger.Error("Failed to load listing schema: %v", err)
		return 1
	}

	browser, err := scraper.NewChromeBrowser(scraper.ChromeOptions{
		ExecPath:         cfg.ChromeBin,
		Headless:         cfg.Headless,
		LoadImages:       cfg.LoadImages,
		WaitTimeout:      cfg.WaitTimeout,
		MinNavigationGap: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		return 1
	}
	defer browser.Close()

	adapters := []scraper.Adapter{
		listam.New(rates, logger),
		estateam.New(rates, logger),
		realestateam.New(rates, logger),
	}
	opts := scraper.CollectorOptions{Limit: cfg.LimitPerCategory, MaxPages: cfg.MaxPages}

	collected := models.NewListingTable()
	var listings []*models.Listing

	for _, adapter := range adapters {
		if !cfg.SiteEnabled(adapter.Name()) {
			logger.Info("[%s] Disabled, skipping", adapter.Name())
			continue
		}
		if ctx.Err() != nil {
			logger.Warn("Interrupted, not starting %s", adapter.Name())
			break
		}

		collector, err := scraper.NewCollector(adapter, browser, processed, opts, logger)
		if err != nil {
			logger.Error("Invalid adapter %s: %v", adapter.Name(), err)
			return 1
		}

		siteListings, err := collector.CollectAll(ctx)
		if err != nil {
			logger.Error("[%s] Collection stopped early, keeping %d listings: %v",
				adapter.Name(), len(siteListings), err)
		}

		table, err := assembler.Assemble(siteListings)
		if err != nil {
			logger.Error("Schema check failed, nothing persisted: %v", err)
			return 1
		}
		collected.Concat(table)
		listings = append(listings, siteListings...)
		logger.Info("[%s] Done: %d new listings", adapter.Name(), table.Len())
	}

	merged, err := storage.MergeAndPersist(cfg.DatasetPath, collected)
	if err != nil {
		logger.Error("Failed to persist dataset: %v", err)
		return 1
	}
	logger.Info("Dataset %s now holds %d listings (%d new)", cfg.DatasetPath, merged.Len(), collected.Len())

	if mirror != nil {
		if err := mirror.Write(listings); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("New listings mirrored to PostgreSQL (table: listings)")
		}
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(listings))
	return 0
}

// seedLinks adds the links mirrored by earlier runs to the processed set.
func seedLinks(processed *utils.LinkSet, src storage.LinkSource, logger *utils.Logger) {
	links, err := src.FetchLinks()
	if err != nil {
		logger.Warn("Could not read mirrored links, relying on the dataset only: %v", err)
		return
	}
	for _, link := range links {
		processed.Add(link)
	}
}
