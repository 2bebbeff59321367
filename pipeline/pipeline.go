// Package pipeline runs one ingestion batch: every selected partner is
// fetched, parsed, validated and normalized independently, then all
// successful partners are merged into the catalog and saved once.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"feed-ingest/config"
	"feed-ingest/models"
	"feed-ingest/parser"
	"feed-ingest/services"
	"feed-ingest/storage"
	"feed-ingest/utils"
)

// FeedFetcher downloads one feed document.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatsSource reports how many images each tier produced.
type StatsSource interface {
	Stats() map[models.SourceType]int
}

// Options tunes a run.
type Options struct {
	// MaxConcurrency bounds how many partners are ingested at once.
	MaxConcurrency int
	// NormalizeWorkers and NormalizeRatePerSec bound the per-partner
	// normalize/image-probe pool.
	NormalizeWorkers      int
	NormalizeRatePerSec   float64
	MaxProductsPerPartner int
	DryRun                bool
}

// Deps are the collaborators of a Pipeline. Partners, Fetcher, Normalizer
// and Store are required.
type Deps struct {
	Partners   *config.PartnerTable
	Fetcher    FeedFetcher
	Parser     *parser.Parser
	Validator  *services.Validator
	Normalizer *services.Normalizer
	Upserter   *services.Upserter
	Store      storage.CatalogRepository

	Archive    *storage.FeedArchive
	Reports    storage.ErrorReportWriter
	ImageStats StatsSource
	Clock      utils.Clock
	Logger     *utils.Logger
	NewRunID   func() string
	Options    Options
}

// Pipeline is a configured ingestion run.
type Pipeline struct {
	Deps
}

// New fills optional dependencies with defaults.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	if deps.Clock == nil {
		deps.Clock = utils.RealClock()
	}
	if deps.Parser == nil {
		deps.Parser = parser.New(parser.Options{})
	}
	if deps.Validator == nil {
		deps.Validator = services.NewValidator(0, deps.Logger)
	}
	if deps.Upserter == nil {
		deps.Upserter = services.NewUpserter(deps.Clock, 0, deps.Logger)
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	if deps.Options.MaxConcurrency < 1 {
		deps.Options.MaxConcurrency = 2
	}
	if deps.Options.NormalizeWorkers < 1 {
		deps.Options.NormalizeWorkers = 10
	}
	return &Pipeline{Deps: deps}
}

// Run ingests the partner named by partnerFilter, or every enabled partner
// when it is empty. Per-partner failures are reported, not returned. The
// returned error is fatal: an unknown partner, a catalog load/save failure
// or cancellation. On cancellation nothing is saved.
func (p *Pipeline) Run(ctx context.Context, partnerFilter string) (*models.RunReport, error) {
	partners, err := p.Partners.Select(partnerFilter)
	if err != nil {
		return nil, err
	}

	report := &models.RunReport{
		RunID:     p.NewRunID(),
		StartedAt: p.Clock.Now().UTC(),
		DryRun:    p.Options.DryRun,
	}
	p.Logger.Info("[pipeline] run %s: %d partner(s), dry-run=%v", report.RunID, len(partners), report.DryRun)

	catalog, err := p.Store.Load(ctx)
	if err != nil {
		return report, err
	}

	outcomes := make([]*partnerOutcome, len(partners))
	var g errgroup.Group
	g.SetLimit(p.Options.MaxConcurrency)
	for i, partner := range partners {
		g.Go(func() error {
			outcomes[i] = p.ingestPartner(ctx, partner)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for _, o := range outcomes {
			report.Partners = append(report.Partners, o.result)
		}
		report.FinishedAt = p.Clock.Now().UTC()
		p.Logger.Warn("[pipeline] run %s cancelled, catalog left untouched", report.RunID)
		return report, err
	}

	next := catalog
	var fetches []storage.FeedFetch
	for _, o := range outcomes {
		fetches = append(fetches, o.fetches...)
		if o.result.Success {
			var stats services.UpsertStats
			next, stats = p.Upserter.Upsert(next, o.products)
			o.result.New = stats.New
			o.result.Updated = stats.Updated
			o.result.Deactivated = p.Upserter.MarkAbsent(next, o.partner.ID, o.seen)
		}
		report.Partners = append(report.Partners, o.result)
	}
	next.Refresh()

	report.TotalProducts = next.TotalProducts
	if p.ImageStats != nil {
		report.ImageStats = p.ImageStats.Stats()
	}

	if p.Reports != nil {
		if err := p.Reports.WriteErrors(report.Errors()); err != nil {
			p.Logger.Warn("[pipeline] error report: %v", err)
		}
	}

	if !p.Options.DryRun && p.Archive != nil {
		entry := storage.FetchLogEntry{RunID: report.RunID, Timestamp: report.StartedAt, Feeds: fetches}
		if err := p.Archive.AppendLog(entry); err != nil {
			p.Logger.Warn("[pipeline] fetch log: %v", err)
		}
	}

	switch {
	case report.AllFailed():
		p.Logger.Warn("[pipeline] run %s: every partner failed, catalog not rewritten", report.RunID)
	case !p.Options.DryRun:
		if err := p.Store.Save(ctx, next); err != nil {
			report.FinishedAt = p.Clock.Now().UTC()
			p.Logger.Error("[upsert] saving catalog failed: %v", err)
			return report, err
		}
	}

	report.FinishedAt = p.Clock.Now().UTC()
	p.Logger.Info("[pipeline] run %s done: %d/%d partners ok, %d products in catalog",
		report.RunID, len(report.Partners)-report.Failed(), len(report.Partners), report.TotalProducts)
	return report, nil
}
