package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feed-ingest/config"
	"feed-ingest/fetcher"
	"feed-ingest/images"
	"feed-ingest/models"
	"feed-ingest/pipeline"
	"feed-ingest/services"
	"feed-ingest/storage"
	"feed-ingest/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	partnerFlag := flag.String("partner", "", "ingest only this partner id (default: all enabled partners)")
	dryRun := flag.Bool("dry-run", false, "process feeds without writing the catalog")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetDebug(cfg.LogLevel == "debug")

	logger.Info("=== Partner feed ingestion starting ===")
	logger.Info("Config: backend %s | concurrency %d | retries %d | transport %s",
		cfg.CatalogBackend, cfg.MaxConcurrency, cfg.MaxRetries, cfg.FetchTransport)

	partners, err := config.LoadPartners(cfg.PartnersFile)
	if err != nil {
		logger.Error("Failed to load partners: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open catalog store: %v", err)
		return 1
	}
	defer store.Close()

	transport, closeTransport := newTransport(cfg, logger)
	defer closeTransport()

	resolver, closeCache := newResolver(ctx, cfg, logger)
	defer closeCache()

	var reports storage.ErrorReportWriter
	if cfg.ErrorReportPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.ErrorReportPath)
		if err != nil {
			logger.Warn("Error report disabled: %v", err)
		} else {
			defer csvWriter.Close()
			reports = csvWriter
		}
	}

	clock := utils.RealClock()
	policy := utils.NewRetryPolicy(cfg.MaxRetries, logger)
	p := pipeline.New(pipeline.Deps{
		Partners:   partners,
		Fetcher:    fetcher.New(transport, policy, cfg.FetchTimeout, logger),
		Validator:  services.NewValidator(cfg.MaxPrice, logger),
		Normalizer: services.NewNormalizer(resolver, clock, cfg.ShortDescriptionLength),
		Upserter:   services.NewUpserter(clock, cfg.DeactivateAfterAbsentRuns, logger),
		Store:      store,
		Archive:    storage.NewFeedArchive(cfg.FeedsDir),
		Reports:    reports,
		ImageStats: resolver,
		Clock:      clock,
		Logger:     logger,
		Options: pipeline.Options{
			MaxConcurrency:        cfg.MaxConcurrency,
			NormalizeWorkers:      cfg.ImageConcurrency,
			NormalizeRatePerSec:   cfg.ImageRatePerSec,
			MaxProductsPerPartner: cfg.MaxProductsPerPartner,
			DryRun:                *dryRun,
		},
	})

	report, err := p.Run(ctx, *partnerFlag)
	if report != nil {
		services.NewSummaryService(os.Stdout).Print(report)
	}

	var upsertErr *models.UpsertError
	switch {
	case errors.As(err, &upsertErr):
		logger.Error("Catalog write failed, previous catalog kept: %v", err)
		return 1
	case errors.Is(err, context.Canceled):
		logger.Warn("Run cancelled, catalog left untouched")
		return 1
	case err != nil:
		logger.Error("Run failed: %v", err)
		return 1
	case report.AllFailed():
		logger.Error("Every partner failed")
		return 1
	}

	fmt.Printf("  Done. Catalog → %s | Errors → %s\n\n", catalogLocation(cfg), cfg.ErrorReportPath)
	return 0
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.CatalogRepository, error) {
	switch cfg.CatalogBackend {
	case "postgres":
		return storage.OpenPostgres(ctx, cfg.DSN(), logger)
	case "sqlite":
		return storage.OpenSQLite(cfg.SQLitePath)
	case "json", "":
		return storage.NewJSONStore(cfg.CatalogPath), nil
	default:
		return nil, fmt.Errorf("unknown CATALOG_BACKEND %q (json, postgres, sqlite)", cfg.CatalogBackend)
	}
}

func newTransport(cfg *config.Config, logger *utils.Logger) (fetcher.Transport, func()) {
	if cfg.FetchTransport == "browser" {
		b := fetcher.NewBrowserTransport(cfg.ChromeBin, logger)
		return b, func() { _ = b.Close() }
	}
	return fetcher.NewHTTPTransport(), func() {}
}

func newResolver(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*images.Resolver, func()) {
	bank := images.DefaultBank()
	if cfg.ImageBankFile != "" {
		loaded, err := images.LoadBank(cfg.ImageBankFile)
		if err != nil {
			logger.Warn("Image bank %s not loaded, using built-in bank: %v", cfg.ImageBankFile, err)
		} else {
			bank = loaded
		}
	}

	closeCache := func() {}
	var validator images.Validator
	if cfg.ValidatePartnerImages {
		var cache images.Cache = images.NewMemoryCache(images.DefaultCacheTTL, nil)
		if cfg.RedisURL != "" {
			rc, err := images.NewRedisCache(cfg.RedisURL, images.DefaultCacheTTL, logger)
			switch {
			case err != nil:
				logger.Warn("Redis cache disabled: %v", err)
			case rc.Ping(ctx) != nil:
				logger.Warn("Redis at %s unreachable, using in-memory image cache", cfg.RedisURL)
				_ = rc.Close()
			default:
				cache = rc
				closeCache = func() { _ = rc.Close() }
			}
		}
		validator = images.NewHTTPValidator(cfg.ImageTimeout, cache, logger)
	}

	resolver := images.NewResolver(bank, validator, images.Options{GeneratedEnabled: cfg.GeneratedImagesEnabled}, logger)
	return resolver, closeCache
}

func catalogLocation(cfg *config.Config) string {
	switch cfg.CatalogBackend {
	case "postgres":
		return "PostgreSQL (catalog_products table)"
	case "sqlite":
		return cfg.SQLitePath
	default:
		return cfg.CatalogPath
	}
}
