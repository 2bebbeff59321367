package parser

import (
	"strings"

	"feed-ingest/models"
)

var statusParser = New(Options{RecordNames: []string{"status"}})

// ParseStatus reads a partner status feed (<statuses><status><SKU/>...) into
// entries keyed by SKU. Entries without a SKU are skipped; a later entry for
// the same SKU wins.
func ParseStatus(data []byte) (map[string]models.StatusEntry, error) {
	out := map[string]models.StatusEntry{}
	err := statusParser.walk(data, func(el *element) error {
		b := collapse(el)
		sku := strings.TrimSpace(models.Str(b.first(skuAliases...)))
		if sku == "" {
			return nil
		}
		out[sku] = models.StatusEntry{
			SKU:     sku,
			InStock: b.first(stockAliases...),
			Price:   b.first(priceAliases...),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
