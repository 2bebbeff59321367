package models

import "time"

// MainCategory is the top-level catalog section a product belongs to.
type MainCategory string

const (
	CategoryBuketter   MainCategory = "buketter"
	CategoryBegravning MainCategory = "begravning"
	CategoryBrollop    MainCategory = "brollop"
	CategoryKonstgjord MainCategory = "konstgjorda-blommor"
	CategoryForetag    MainCategory = "foretag"
	CategoryPresenter  MainCategory = "presenter"
)

// MainCategories lists every valid MainCategory.
var MainCategories = []MainCategory{
	CategoryBuketter, CategoryBegravning, CategoryBrollop,
	CategoryKonstgjord, CategoryForetag, CategoryPresenter,
}

// Valid reports whether c is one of MainCategories.
func (c MainCategory) Valid() bool {
	for _, m := range MainCategories {
		if c == m {
			return true
		}
	}
	return false
}

// SourceType is the tier an image was resolved from.
type SourceType string

const (
	SourcePartner     SourceType = "partner"
	SourceRoyaltyFree SourceType = "royalty_free"
	SourceGenerated   SourceType = "generated"
	SourcePlaceholder SourceType = "placeholder"
)

type ValidationStatus string

const (
	ImageValid     ValidationStatus = "valid"
	ImageUnchecked ValidationStatus = "unchecked"
	ImageFallback  ValidationStatus = "fallback"
)

// ImageAsset is the resolved display image of a product.
type ImageAsset struct {
	URL              string           `json:"url"`
	AltText          string           `json:"altText"`
	SourceType       SourceType       `json:"sourceType"`
	License          string           `json:"license"`
	Width            int              `json:"width,omitempty"`
	Height           int              `json:"height,omitempty"`
	Format           string           `json:"format,omitempty"`
	ValidationStatus ValidationStatus `json:"validationStatus"`
	Prompt           string           `json:"prompt,omitempty"`
}

// Attributes are keyword-derived product facets used by filters.
type Attributes struct {
	Colors            []string `json:"colors"`
	PrimaryColor      string   `json:"primaryColor,omitempty"`
	FlowerTypes       []string `json:"flowerTypes"`
	SuitableFor       []string `json:"suitableFor"`
	Occasions         []string `json:"occasions"`
	Size              string   `json:"size,omitempty"`
	Style             string   `json:"style,omitempty"`
	Mood              string   `json:"mood,omitempty"`
	VaseIncluded      bool     `json:"vaseIncluded"`
	ChocolateIncluded bool     `json:"chocolateIncluded"`
	CardIncluded      bool     `json:"cardIncluded"`
	HeightCm          int      `json:"heightCm,omitempty"`
	WidthCm           int      `json:"widthCm,omitempty"`
	Longevity         string   `json:"longevity,omitempty"`
}

// CanonicalProduct is one catalog entry. ID is derived from (PartnerID, SKU).
type CanonicalProduct struct {
	ID               string       `json:"id"`
	SKU              string       `json:"sku"`
	PartnerID        string       `json:"partnerId"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"shortDescription"`
	MainCategory     MainCategory `json:"mainCategory"`
	SubCategories    []string     `json:"subCategories"`
	Tags             []string     `json:"tags"`

	Price           float64 `json:"price"`
	OriginalPrice   float64 `json:"originalPrice,omitempty"`
	Currency        string  `json:"currency"`
	DiscountPercent int     `json:"discountPercent"`
	Shipping        float64 `json:"shipping,omitempty"`

	InStock         bool `json:"inStock"`
	SameDayDelivery bool `json:"sameDayDelivery"`
	DeliveryDays    int  `json:"deliveryDays"`

	Attributes       Attributes `json:"attributes"`
	PrimaryImage     ImageAsset `json:"primaryImage"`
	AdditionalImages []string   `json:"additionalImages,omitempty"`

	ProductURL  string `json:"productUrl"`
	TrackingURL string `json:"trackingUrl"`
	Brand       string `json:"brand,omitempty"`
	EAN         string `json:"ean,omitempty"`

	PopularityScore float64   `json:"popularityScore"`
	ClickCount      int       `json:"clickCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	FeedUpdatedAt   time.Time `json:"feedUpdatedAt"`
	IsActive        bool      `json:"isActive"`
	IsPromoted      bool      `json:"isPromoted"`
	AbsentRuns      int       `json:"absentRuns,omitempty"`
}
