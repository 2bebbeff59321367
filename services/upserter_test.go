package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-ingest/models"
	"feed-ingest/utils"
)

func product(partner, sku string, price float64) *models.CanonicalProduct {
	return &models.CanonicalProduct{
		ID:        ProductID(partner, sku),
		SKU:       sku,
		PartnerID: partner,
		Name:      "Bukett " + sku,
		Price:     price,
		InStock:   true,
		IsActive:  true,
	}
}

func TestUpsertPreservesEngagement(t *testing.T) {
	clock := utils.NewFakeClock(testNow)
	u := NewUpserter(clock, 0, nil)

	created := testNow.Add(-30 * 24 * time.Hour)
	old := product("cramers", "A1", 499)
	old.ClickCount = 42
	old.PopularityScore = 0.8
	old.IsPromoted = true
	old.CreatedAt = created
	catalog := models.NewCatalog()
	catalog.Products[old.ID] = old

	clock.Advance(time.Hour)
	updated := product("cramers", "A1", 399)
	updated.InStock = false
	next, stats := u.Upsert(catalog, []*models.CanonicalProduct{updated, product("cramers", "B2", 199)})

	got := next.Products[old.ID]
	require.NotNil(t, got)
	assert.Equal(t, 42, got.ClickCount)
	assert.Equal(t, 0.8, got.PopularityScore)
	assert.True(t, got.IsPromoted)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, 399.0, got.Price)
	assert.False(t, got.InStock)
	assert.Equal(t, testNow.Add(time.Hour), got.UpdatedAt)
	assert.Equal(t, testNow.Add(time.Hour), got.FeedUpdatedAt)

	fresh := next.Products[ProductID("cramers", "B2")]
	require.NotNil(t, fresh)
	assert.Equal(t, 0, fresh.ClickCount)
	assert.Equal(t, testNow.Add(time.Hour), fresh.CreatedAt)

	assert.Equal(t, UpsertStats{New: 1, Updated: 1}, stats)
	assert.Equal(t, 2, next.TotalProducts)
	assert.Equal(t, []string{"cramers"}, next.Partners)
	assert.Equal(t, testNow.Add(time.Hour), next.GeneratedAt)

	assert.Equal(t, 499.0, catalog.Products[old.ID].Price, "input catalog untouched")
	assert.Len(t, catalog.Products, 1)
}

func TestUpsertIdempotent(t *testing.T) {
	clock := utils.NewFakeClock(testNow)
	u := NewUpserter(clock, 0, nil)
	feed := func() []*models.CanonicalProduct {
		return []*models.CanonicalProduct{product("cramers", "A1", 499), product("interflora", "B2", 299)}
	}

	first, _ := u.Upsert(models.NewCatalog(), feed())
	clock.Advance(24 * time.Hour)
	second, stats := u.Upsert(first, feed())

	assert.Equal(t, UpsertStats{Updated: 2}, stats)
	require.Equal(t, first.SortedIDs(), second.SortedIDs())
	for _, id := range first.SortedIDs() {
		a, b := *first.Products[id], *second.Products[id]
		assert.True(t, b.UpdatedAt.After(a.UpdatedAt))
		a.UpdatedAt, a.FeedUpdatedAt = time.Time{}, time.Time{}
		b.UpdatedAt, b.FeedUpdatedAt = time.Time{}, time.Time{}
		assert.Equal(t, a, b, id)
	}
}

func TestMarkAbsentDeactivatesAfterThreshold(t *testing.T) {
	u := NewUpserter(utils.NewFakeClock(testNow), 3, nil)
	catalog, _ := u.Upsert(models.NewCatalog(), []*models.CanonicalProduct{
		product("cramers", "A1", 499),
		product("cramers", "GONE", 299),
		product("interflora", "B2", 199),
	})
	seen := utils.NewKeySet()
	seen.Add(ProductID("cramers", "A1"))
	gone := ProductID("cramers", "GONE")

	assert.Equal(t, 0, u.MarkAbsent(catalog, "cramers", seen))
	assert.Equal(t, 0, u.MarkAbsent(catalog, "cramers", seen))
	assert.True(t, catalog.Products[gone].IsActive)
	assert.Equal(t, 1, u.MarkAbsent(catalog, "cramers", seen))
	assert.False(t, catalog.Products[gone].IsActive)
	assert.Equal(t, 3, catalog.Products[gone].AbsentRuns)
	assert.Equal(t, 0, u.MarkAbsent(catalog, "cramers", seen), "already inactive")

	assert.True(t, catalog.Products[ProductID("cramers", "A1")].IsActive)
	assert.Equal(t, 0, catalog.Products[ProductID("interflora", "B2")].AbsentRuns, "other partners untouched")
	assert.Len(t, catalog.Products, 3, "nothing is removed")

	next, stats := u.Upsert(catalog, []*models.CanonicalProduct{product("cramers", "GONE", 299)})
	assert.Equal(t, 1, stats.Reactivated)
	assert.True(t, next.Products[gone].IsActive)
	assert.Equal(t, 0, next.Products[gone].AbsentRuns)
}
