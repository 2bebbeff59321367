package services

import (
	"fmt"
	"net/url"
	"strings"

	"feed-ingest/models"
	"feed-ingest/utils"
)

// DefaultMaxPrice marks prices above it as feed errors.
const DefaultMaxPrice = 50000

// Validator checks the required fields of raw records. A bad record is
// reported and dropped; it never stops the batch.
type Validator struct {
	maxPrice float64
	logger   *utils.Logger
}

// NewValidator creates a Validator. maxPrice <= 0 uses DefaultMaxPrice.
func NewValidator(maxPrice float64, logger *utils.Logger) *Validator {
	if maxPrice <= 0 {
		maxPrice = DefaultMaxPrice
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Validator{maxPrice: maxPrice, logger: logger}
}

// ValidateRecord returns every problem found in rec; nil means valid.
func (v *Validator) ValidateRecord(partner models.Partner, rec models.RawFeedRecord) []models.ValidationError {
	var errs []models.ValidationError
	add := func(field, reason string) {
		errs = append(errs, models.ValidationError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(models.Str(rec.SKU)) == "" {
		add("sku", "missing")
	}
	if strings.TrimSpace(models.Str(rec.Name)) == "" {
		add("name", "missing")
	}

	if rawPrice := strings.TrimSpace(models.Str(rec.Price)); rawPrice == "" {
		add("price", "missing")
	} else if price, negative, err := ParsePrice(rawPrice); err != nil {
		add("price", fmt.Sprintf("malformed %q", rawPrice))
	} else if negative {
		add("price", fmt.Sprintf("negative %q", rawPrice))
	} else if price > v.maxPrice {
		add("price", fmt.Sprintf("suspicious %.2f exceeds %.0f", price, v.maxPrice))
	}

	if productURL := strings.TrimSpace(models.Str(rec.ProductURL)); productURL == "" {
		add("productUrl", "missing")
	} else if !isAbsoluteHTTP(productURL) {
		add("productUrl", fmt.Sprintf("not an absolute http(s) URL: %q", productURL))
	}

	if cur := strings.TrimSpace(models.Str(rec.Currency)); cur != "" && partner.Currency != "" &&
		!strings.EqualFold(cur, partner.Currency) {
		add("currency", fmt.Sprintf("%s, expected %s", cur, partner.Currency))
	}

	return errs
}

// Validate partitions records into valid ones and ingestion errors. Records
// whose product id repeats an earlier one in the same feed are rejected.
// Feed order is preserved.
func (v *Validator) Validate(partner models.Partner, records []models.RawFeedRecord) ([]models.RawFeedRecord, []models.FeedIngestionError) {
	valid := make([]models.RawFeedRecord, 0, len(records))
	var errs []models.FeedIngestionError
	seen := map[string]string{}

	for _, rec := range records {
		if ferr, ok := v.check(partner, rec, seen); !ok {
			errs = append(errs, ferr)
			continue
		}
		valid = append(valid, rec)
	}

	if len(errs) > 0 {
		v.logger.Warn("[validator] %s: %d/%d records rejected", partner.ID, len(errs), len(records))
	}
	return valid, errs
}

func (v *Validator) check(partner models.Partner, rec models.RawFeedRecord, seen map[string]string) (models.FeedIngestionError, bool) {
	fail := func(msg string) (models.FeedIngestionError, bool) {
		return models.FeedIngestionError{
			Partner:  partner.ID,
			Stage:    models.StageValidate,
			RecordID: rec.Identifier(),
			Message:  msg,
			Severity: models.SeverityError,
		}, false
	}

	if verrs := v.ValidateRecord(partner, rec); len(verrs) > 0 {
		parts := make([]string, len(verrs))
		for i := range verrs {
			parts[i] = verrs[i].Error()
		}
		return fail(strings.Join(parts, "; "))
	}
	sku := strings.TrimSpace(models.Str(rec.SKU))
	id := ProductID(partner.ID, sku)
	if first, dup := seen[id]; dup {
		return fail(fmt.Sprintf("duplicate sku in feed: %q and %q both map to id %s", first, sku, id))
	}
	seen[id] = sku
	return models.FeedIngestionError{}, true
}

func isAbsoluteHTTP(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ProductID derives the stable catalog id of a partner's sku. The id is a
// slug, so skus differing only in case or punctuation share one id.
func ProductID(partnerID, sku string) string {
	return utils.Slugify(partnerID + "-" + strings.TrimSpace(sku))
}
