package services

import (
	"feed-ingest/models"
	"feed-ingest/utils"
)

// DefaultDeactivateAfter is how many consecutive absent runs deactivate a
// product.
const DefaultDeactivateAfter = 3

// UpsertStats counts what an Upsert did.
type UpsertStats struct {
	New         int
	Updated     int
	Reactivated int
}

// Upserter merges normalized products into the catalog. It never mutates the
// catalog it is given.
type Upserter struct {
	clock           utils.Clock
	deactivateAfter int
	logger          *utils.Logger
}

// NewUpserter creates an Upserter. deactivateAfter <= 0 uses
// DefaultDeactivateAfter.
func NewUpserter(clock utils.Clock, deactivateAfter int, logger *utils.Logger) *Upserter {
	if clock == nil {
		clock = utils.RealClock()
	}
	if deactivateAfter <= 0 {
		deactivateAfter = DefaultDeactivateAfter
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Upserter{clock: clock, deactivateAfter: deactivateAfter, logger: logger}
}

// Upsert returns a new catalog with products inserted or overwritten by id.
// Engagement state (clickCount, popularityScore, createdAt, isPromoted) of an
// existing product survives the overwrite.
func (u *Upserter) Upsert(catalog *models.Catalog, products []*models.CanonicalProduct) (*models.Catalog, UpsertStats) {
	if catalog == nil {
		catalog = models.NewCatalog()
	}
	next := catalog.Clone()
	now := u.clock.Now().UTC()
	var stats UpsertStats

	for _, p := range products {
		if p == nil || p.ID == "" {
			continue
		}
		merged := *p
		merged.UpdatedAt = now
		merged.FeedUpdatedAt = now
		merged.AbsentRuns = 0
		merged.IsActive = true

		if prev, ok := next.Products[p.ID]; ok {
			merged.ClickCount = prev.ClickCount
			merged.PopularityScore = prev.PopularityScore
			merged.CreatedAt = prev.CreatedAt
			merged.IsPromoted = prev.IsPromoted
			if !prev.IsActive {
				stats.Reactivated++
			}
			stats.Updated++
		} else {
			merged.CreatedAt = now
			merged.ClickCount = 0
			stats.New++
		}
		next.Products[p.ID] = &merged
	}

	next.GeneratedAt = now
	next.Refresh()
	u.logger.Debug("[upsert] %d new, %d updated, %d reactivated", stats.New, stats.Updated, stats.Reactivated)
	return next, stats
}

// MarkAbsent bumps absentRuns of partnerID's products whose id is not in seen
// and deactivates those reaching the threshold. It mutates catalog in place
// and returns how many products were deactivated by this call. Nothing is
// ever removed.
func (u *Upserter) MarkAbsent(catalog *models.Catalog, partnerID string, seen *utils.KeySet) int {
	if catalog == nil {
		return 0
	}
	deactivated := 0
	for _, id := range catalog.SortedIDs() {
		p := catalog.Products[id]
		if p.PartnerID != partnerID || (seen != nil && seen.Contains(id)) {
			continue
		}
		p.AbsentRuns++
		if p.IsActive && p.AbsentRuns >= u.deactivateAfter {
			p.IsActive = false
			deactivated++
			u.logger.Info("[upsert] %s: deactivated %s after %d absent runs", partnerID, id, p.AbsentRuns)
		}
	}
	return deactivated
}
