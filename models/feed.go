package models

import "fmt"

// RawFeedRecord is one product element from a partner feed, before validation.
// Optional fields are nil when the element was absent, and "" when present
// but empty.
type RawFeedRecord struct {
	Index int

	SKU           *string
	Name          *string
	Description   *string
	Price         *string
	OriginalPrice *string
	Currency      *string
	Shipping      *string
	InStock       *string
	Category      *string
	Brand         *string
	ImageURL      *string
	ProductURL    *string
	TrackingURL   *string
	EAN           *string
	ArticleNumber *string
	Extras        *string

	AdditionalImages []string
}

// Str dereferences an optional field, returning "" when unset.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Identifier returns the best label for the record in error reports.
func (r RawFeedRecord) Identifier() string {
	if sku := Str(r.SKU); sku != "" {
		return sku
	}
	return fmt.Sprintf("#%d", r.Index+1)
}

// StatusEntry is one row of a partner status feed, keyed by SKU.
type StatusEntry struct {
	SKU     string
	InStock *string
	Price   *string
}

// Stage names the pipeline step an ingestion error came from.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageStatus    Stage = "status"
	StageParse     Stage = "parse"
	StageValidate  Stage = "validate"
	StageNormalize Stage = "normalize"
	StageUpsert    Stage = "upsert"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// FeedIngestionError is an accumulated, non-fatal issue found while ingesting
// one partner. It is recorded and reported, never returned across records.
type FeedIngestionError struct {
	Partner  string   `json:"partner"`
	Stage    Stage    `json:"stage"`
	RecordID string   `json:"recordId,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (e FeedIngestionError) String() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s/%s [%s]: %s", e.Partner, e.Stage, e.RecordID, e.Message)
	}
	return fmt.Sprintf("%s/%s: %s", e.Partner, e.Stage, e.Message)
}
