package pipeline

import (
	"context"
	"fmt"
	"strings"

	"feed-ingest/models"
	"feed-ingest/parser"
	"feed-ingest/services"
	"feed-ingest/storage"
	"feed-ingest/utils"
)

type partnerOutcome struct {
	partner  models.Partner
	result   models.PartnerResult
	products []*models.CanonicalProduct
	// ids of every valid record in the feed, capped ones included
	seen    *utils.KeySet
	fetches []storage.FeedFetch
}

func (p *Pipeline) ingestPartner(ctx context.Context, partner models.Partner) *partnerOutcome {
	start := p.Clock.Now()
	o := &partnerOutcome{
		partner: partner,
		result:  models.PartnerResult{PartnerID: partner.ID, PartnerName: partner.Name},
		seen:    utils.NewKeySet(),
	}
	defer func() { o.result.Duration = p.Clock.Now().Sub(start) }()

	p.Logger.Info("[pipeline] %s: fetching %s", partner.ID, partner.ProductFeed)
	body, err := p.fetch(ctx, o, "product", partner.ProductFeed)
	if err != nil {
		return o.fail(models.StageFetch, err)
	}
	o.result.ProductBytes = len(body)

	statuses := p.statuses(ctx, o)

	records := []models.RawFeedRecord{}
	err = p.Parser.Stream(body, func(rec models.RawFeedRecord) error {
		if st, ok := statuses[strings.TrimSpace(models.Str(rec.SKU))]; ok {
			if st.InStock != nil {
				rec.InStock = st.InStock
			}
			if st.Price != nil {
				rec.Price = st.Price
			}
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return o.fail(models.StageParse, err)
	}
	o.result.Total = len(records)

	valid, verrs := p.Validator.Validate(partner, records)
	o.result.Valid = len(valid)
	o.result.Invalid = len(verrs)
	o.result.Errors = append(o.result.Errors, verrs...)
	for _, rec := range valid {
		o.seen.Add(services.ProductID(partner.ID, models.Str(rec.SKU)))
	}

	if limit := p.Options.MaxProductsPerPartner; limit > 0 && len(valid) > limit {
		o.result.Capped = len(valid) - limit
		valid = valid[:limit]
		p.Logger.Warn("[pipeline] %s: capped at %d products (%d skipped)", partner.ID, limit, o.result.Capped)
	}

	o.products = p.normalize(ctx, partner, valid)
	if err := ctx.Err(); err != nil {
		o.products = nil
		return o.fail(models.StageNormalize, err)
	}

	o.result.Success = true
	p.Logger.Info("[pipeline] %s: %d/%d records valid", partner.ID, o.result.Valid, o.result.Total)
	return o
}

// statuses fetches and parses the optional status feed. Any failure is a
// warning and yields no overrides.
func (p *Pipeline) statuses(ctx context.Context, o *partnerOutcome) map[string]models.StatusEntry {
	if o.partner.StatusFeed == "" {
		return nil
	}
	warn := func(err error) map[string]models.StatusEntry {
		p.Logger.Warn("[pipeline] %s: status feed ignored: %v", o.partner.ID, err)
		o.result.Errors = append(o.result.Errors, models.FeedIngestionError{
			Partner:  o.partner.ID,
			Stage:    models.StageStatus,
			Message:  err.Error(),
			Severity: models.SeverityWarning,
		})
		return nil
	}

	body, err := p.fetch(ctx, o, "status", o.partner.StatusFeed)
	if err != nil {
		return warn(err)
	}
	o.result.StatusBytes = len(body)
	entries, err := parser.ParseStatus(body)
	if err != nil {
		return warn(err)
	}
	return entries
}

func (p *Pipeline) fetch(ctx context.Context, o *partnerOutcome, kind, url string) ([]byte, error) {
	rec := storage.FeedFetch{Partner: o.partner.ID, Kind: kind, URL: url}
	defer func() { o.fetches = append(o.fetches, rec) }()

	body, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		rec.Error = err.Error()
		return nil, err
	}
	rec.Success = true
	rec.Bytes = len(body)

	if p.Archive != nil && !p.Options.DryRun {
		path, aerr := p.Archive.Save(o.partner.ID, kind, p.Clock.Now(), body)
		if aerr != nil {
			p.Logger.Warn("[pipeline] %s: %v", o.partner.ID, aerr)
		}
		rec.File = path
	}
	return body, nil
}

// normalize runs the normalizer over records on a bounded, rate-limited
// pool. The output keeps feed order.
func (p *Pipeline) normalize(ctx context.Context, partner models.Partner, records []models.RawFeedRecord) []*models.CanonicalProduct {
	products := make([]*models.CanonicalProduct, len(records))
	pool := utils.NewWorkerPool(p.Options.NormalizeWorkers, p.Options.NormalizeRatePerSec)
	for i, rec := range records {
		pool.Submit(ctx, func(ctx context.Context) {
			if ctx.Err() != nil {
				return
			}
			products[i] = p.Normalizer.Normalize(ctx, rec, partner)
		})
	}
	pool.Wait()
	return products
}

func (o *partnerOutcome) fail(stage models.Stage, err error) *partnerOutcome {
	o.result.Success = false
	o.result.Err = fmt.Sprintf("%s: %v", stage, err)
	o.result.Errors = append(o.result.Errors, models.FeedIngestionError{
		Partner:  o.partner.ID,
		Stage:    stage,
		Message:  err.Error(),
		Severity: models.SeverityError,
	})
	return o
}
