package services

import (
	"context"
	"math"
	"net/url"
	"regexp"
	"strings"

	"feed-ingest/categorizer"
	"feed-ingest/models"
	"feed-ingest/utils"
)

// DefaultShortDescriptionLength is the rune budget of shortDescription.
const DefaultShortDescriptionLength = 160

// ImageResolver assigns the primary image of a normalized product.
type ImageResolver interface {
	Resolve(ctx context.Context, p *models.CanonicalProduct, partnerImageURL string) models.ImageAsset
}

// Normalizer maps validated raw records onto CanonicalProduct.
type Normalizer struct {
	images   ImageResolver
	clock    utils.Clock
	shortLen int
}

// NewNormalizer creates a Normalizer. shortLen <= 0 uses
// DefaultShortDescriptionLength; a nil clock means the wall clock.
func NewNormalizer(images ImageResolver, clock utils.Clock, shortLen int) *Normalizer {
	if clock == nil {
		clock = utils.RealClock()
	}
	if shortLen <= 0 {
		shortLen = DefaultShortDescriptionLength
	}
	return &Normalizer{images: images, clock: clock, shortLen: shortLen}
}

var categorySplitRegexp = regexp.MustCompile(`\s*(?:[,>|/;]|&gt;)\s*`)

// Normalize builds the catalog product for a record that passed validation.
// Categorization and image resolution degrade to defaults and never fail.
func (n *Normalizer) Normalize(ctx context.Context, rec models.RawFeedRecord, partner models.Partner) *models.CanonicalProduct {
	sku := strings.TrimSpace(models.Str(rec.SKU))
	name := utils.CollapseSpace(utils.StripHTML(models.Str(rec.Name)))
	description := utils.StripHTML(models.Str(rec.Description))
	if description == "" {
		description = name
	}
	categoryText := strings.TrimSpace(models.Str(rec.Category))

	price, _, _ := ParsePrice(models.Str(rec.Price))
	originalPrice := priceOrZero(models.Str(rec.OriginalPrice))
	if originalPrice <= price {
		originalPrice = 0
	}
	inStock := ParseInStock(rec.InStock)
	extras := ParseExtras(models.Str(rec.Extras))

	feedCategories := splitCategories(categoryText)
	classified := categorizer.Classify(append(append([]string{}, partner.CategoryHints...), feedCategories...),
		name, description, price)
	attrs := ExtractAttributes(name, description, categoryText, extras)

	productURL := strings.TrimSpace(models.Str(rec.ProductURL))
	brand := strings.TrimSpace(models.Str(rec.Brand))
	if brand == "" {
		brand = partner.Name
	}
	currency := partner.Currency
	if currency == "" {
		currency = "SEK"
	}

	now := n.clock.Now().UTC()
	p := &models.CanonicalProduct{
		ID:               ProductID(partner.ID, sku),
		SKU:              sku,
		PartnerID:        partner.ID,
		Name:             name,
		Description:      description,
		ShortDescription: utils.TruncateWords(description, n.shortLen),
		MainCategory:     classified.MainCategory,
		SubCategories:    classified.SubCategories,
		Tags:             buildTags(classified.SubCategories, attrs, feedCategories),

		Price:           price,
		OriginalPrice:   originalPrice,
		Currency:        strings.ToUpper(currency),
		DiscountPercent: CalculateDiscount(originalPrice, price),
		Shipping:        priceOrZero(models.Str(rec.Shipping)),

		InStock:         inStock,
		SameDayDelivery: inStock && partner.Delivery.SameDayAvailable,
		DeliveryDays:    partner.Delivery.StandardDays,

		Attributes:       attrs,
		AdditionalImages: rec.AdditionalImages,

		ProductURL:  productURL,
		TrackingURL: BuildTrackingURL(partner.Tracking, productURL, strings.TrimSpace(models.Str(rec.TrackingURL))),
		Brand:       brand,
		EAN:         strings.TrimSpace(models.Str(rec.EAN)),

		CreatedAt:     now,
		UpdatedAt:     now,
		FeedUpdatedAt: now,
		IsActive:      true,
	}

	if n.images != nil {
		p.PrimaryImage = n.images.Resolve(ctx, p, models.Str(rec.ImageURL))
	}
	return p
}

// CalculateDiscount returns the rounded percentage saved, or 0 when there is
// no real discount.
func CalculateDiscount(originalPrice, price float64) int {
	if originalPrice <= 0 || originalPrice <= price {
		return 0
	}
	return int(math.Round((originalPrice - price) / originalPrice * 100))
}

// BuildTrackingURL fills the partner template with the URL-encoded product
// URL. Without a template the feed's own tracking link is used, then the
// product URL itself.
func BuildTrackingURL(t models.Tracking, productURL, feedTrackingURL string) string {
	if t.Template == "" {
		if feedTrackingURL != "" {
			return feedTrackingURL
		}
		return productURL
	}

	out := strings.NewReplacer(
		"{ProductUrl}", encodeURIComponent(productURL),
		"{epi}", encodeURIComponent(t.Epi),
		"{subid}", encodeURIComponent(t.SubID),
	).Replace(t.Template)

	if t.Epi != "" && !strings.Contains(t.Template, "{epi}") {
		sep := "?"
		if strings.Contains(out, "?") {
			sep = "&"
		}
		out += sep + "epi=" + encodeURIComponent(t.Epi)
	}
	return out
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func splitCategories(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range categorySplitRegexp.Split(text, -1) {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func buildTags(subCategories []string, attrs models.Attributes, feedCategories []string) []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, group := range [][]string{subCategories, attrs.FlowerTypes, attrs.Colors, attrs.Occasions, feedCategories} {
		for _, t := range group {
			if t != "" && !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}
