package images

import (
	"strings"

	"feed-ingest/models"
)

var promptTemplates = map[models.MainCategory]string{
	models.CategoryBuketter: "A beautiful Swedish-style flower bouquet with {flowers}, in {colors} colors. " +
		"Professional florist arrangement, clean white background, soft natural lighting, " +
		"high-quality product photography style. No text, no watermarks.",
	models.CategoryBegravning: "A dignified funeral flower arrangement in traditional Swedish style. " +
		"Respectful white and green tones with subtle {colors} accents. " +
		"Professional florist quality, soft lighting, white background. " +
		"Elegant and somber mood. No text, no watermarks.",
	models.CategoryBrollop: "An elegant Swedish wedding flower arrangement. " +
		"Romantic {flowers} in {colors} colors. Soft, dreamy lighting. " +
		"Professional bridal florist quality, clean background. " +
		"Sophisticated and romantic mood. No text, no watermarks.",
	models.CategoryForetag: "A professional corporate flower arrangement for Swedish office setting. " +
		"Modern, clean design with {flowers} in {colors} colors. " +
		"Sleek and professional, suitable for business environment. " +
		"High-quality product photography, white background. No text, no watermarks.",
	models.CategoryPresenter: "A beautiful gift arrangement combining flowers with {extras}. " +
		"Swedish gift style, {flowers} in {colors} colors with elegant presentation. " +
		"Professional product photography, white background, soft lighting. " +
		"Cheerful and gift-worthy appearance. No text, no watermarks.",
	models.CategoryKonstgjord: "High-quality artificial silk flowers, {flowers} in {colors} colors. " +
		"Realistic appearance, Swedish interior design aesthetic. " +
		"Professional product photography showing craftsmanship and detail. " +
		"Clean white background, soft lighting. No text, no watermarks.",
}

// Prompt renders the illustration prompt for a product.
func Prompt(p *models.CanonicalProduct) string {
	tmpl, ok := promptTemplates[p.MainCategory]
	if !ok {
		tmpl = promptTemplates[models.CategoryBuketter]
	}

	flowers := strings.Join(p.Attributes.FlowerTypes, ", ")
	if flowers == "" {
		flowers = "mixed seasonal flowers"
	}
	colors := strings.Join(p.Attributes.Colors, " and ")
	if colors == "" {
		colors = "colorful"
	}
	extras := "elegant wrapping"
	switch {
	case p.Attributes.ChocolateIncluded:
		extras = "chocolate"
	case p.Attributes.VaseIncluded:
		extras = "vase"
	}

	return strings.NewReplacer("{flowers}", flowers, "{colors}", colors, "{extras}", extras).Replace(tmpl)
}
