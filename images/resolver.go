// Package images guarantees every product a displayable image by walking a
// fixed chain of tiers: partner image, royalty-free bank, generated
// illustration, category placeholder. Falling through a tier is the normal
// path and is only logged.
package images

import (
	"context"
	"strings"
	"sync"

	"feed-ingest/models"
	"feed-ingest/utils"
)

// Options toggles optional tiers.
type Options struct {
	// GeneratedEnabled turns on the illustration tier.
	GeneratedEnabled bool
}

// Resolver assigns a primary image to products. Safe for concurrent use.
type Resolver struct {
	bank      *Bank
	validator Validator
	opts      Options
	logger    *utils.Logger

	mu    sync.Mutex
	stats map[models.SourceType]int
}

// NewResolver creates a Resolver. A nil validator accepts any absolute
// partner URL without probing it; a nil bank means DefaultBank.
func NewResolver(bank *Bank, validator Validator, opts Options, logger *utils.Logger) *Resolver {
	if bank == nil {
		bank = DefaultBank()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Resolver{
		bank:      bank,
		validator: validator,
		opts:      opts,
		logger:    logger,
		stats:     map[models.SourceType]int{},
	}
}

// Resolve never fails: the placeholder tier always produces an asset.
func (r *Resolver) Resolve(ctx context.Context, p *models.CanonicalProduct, partnerImageURL string) models.ImageAsset {
	asset, ok := r.partner(ctx, p, partnerImageURL)
	if !ok {
		asset, ok = r.royaltyFree(p)
	}
	if !ok && r.opts.GeneratedEnabled {
		asset, ok = r.generated(p)
	}
	if !ok {
		asset = r.placeholder(p)
	}

	r.mu.Lock()
	r.stats[asset.SourceType]++
	r.mu.Unlock()
	return asset
}

// Stats returns how many images each tier produced so far.
func (r *Resolver) Stats() map[models.SourceType]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[models.SourceType]int, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}

func (r *Resolver) partner(ctx context.Context, p *models.CanonicalProduct, imageURL string) (models.ImageAsset, bool) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return models.ImageAsset{}, false
	}
	if !IsHTTPURL(imageURL) {
		r.logger.Debug("[images] %s: partner image %q is not an absolute URL", p.ID, imageURL)
		return models.ImageAsset{}, false
	}

	asset := models.ImageAsset{
		URL:              imageURL,
		AltText:          p.Name,
		SourceType:       models.SourcePartner,
		License:          "partner_provided",
		Format:           FormatFromURL(imageURL),
		ValidationStatus: models.ImageUnchecked,
	}
	if r.validator == nil {
		return asset, true
	}

	v := r.validator.Validate(ctx, imageURL)
	if !v.Valid {
		r.logger.Debug("[images] %s: partner image rejected: %s", p.ID, v.Reason)
		return models.ImageAsset{}, false
	}
	if v.Format != "" {
		asset.Format = v.Format
	}
	asset.ValidationStatus = models.ImageValid
	return asset, true
}

// royaltyFree searches "<main>:<primaryColor>", then each sub-category, then
// the main category.
func (r *Resolver) royaltyFree(p *models.CanonicalProduct) (models.ImageAsset, bool) {
	main := string(p.MainCategory)
	keys := make([]string, 0, len(p.SubCategories)+2)
	if p.Attributes.PrimaryColor != "" {
		keys = append(keys, main+":"+p.Attributes.PrimaryColor)
	}
	keys = append(keys, p.SubCategories...)
	keys = append(keys, main)

	for _, key := range keys {
		pool := r.bank.RoyaltyFree[key]
		if len(pool) == 0 {
			continue
		}
		img := pick(pool, p.ID)
		return fromBank(img, p.Name, models.SourceRoyaltyFree, "cc0"), true
	}
	r.logger.Debug("[images] %s: no royalty-free match", p.ID)
	return models.ImageAsset{}, false
}

func (r *Resolver) generated(p *models.CanonicalProduct) (models.ImageAsset, bool) {
	pool := r.bank.Generated[string(p.MainCategory)]
	if len(pool) == 0 {
		return models.ImageAsset{}, false
	}
	key := string(p.MainCategory) + "|" +
		strings.Join(p.Attributes.FlowerTypes, ",") + "|" +
		strings.Join(p.Attributes.Colors, ",")

	asset := fromBank(pick(pool, key), p.Name+" (illustrationsbild)", models.SourceGenerated, "ai_generated")
	asset.Prompt = Prompt(p)
	return asset, true
}

func (r *Resolver) placeholder(p *models.CanonicalProduct) models.ImageAsset {
	img, ok := r.bank.Placeholders[string(p.MainCategory)]
	if !ok || img.URL == "" {
		img, ok = r.bank.Placeholders[string(models.CategoryBuketter)]
	}
	if !ok || img.URL == "" {
		img = BankImage{URL: "/images/placeholders/bouquet-placeholder.svg", Format: "svg"}
	}
	asset := fromBank(img, p.Name+" - bild kommer snart", models.SourcePlaceholder, "partner_provided")
	asset.ValidationStatus = models.ImageFallback
	return asset
}

func fromBank(img BankImage, alt string, source models.SourceType, license string) models.ImageAsset {
	if img.License != "" {
		license = img.License
	}
	if strings.TrimSpace(alt) == "" {
		alt = img.AltText
	}
	return models.ImageAsset{
		URL:              img.URL,
		AltText:          alt,
		SourceType:       source,
		License:          license,
		Width:            img.Width,
		Height:           img.Height,
		Format:           img.Format,
		ValidationStatus: models.ImageValid,
	}
}
