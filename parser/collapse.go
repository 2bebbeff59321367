package parser

import (
	"strings"

	"feed-ingest/models"
)

// fieldBag maps a lower-cased element name to every value seen under it.
//
// XML has no array syntax: a product carries one <Category> or five, and a
// feed carries one <product> or thousands. Everything read from a record goes
// through this bag, so a single occurrence and a repeated one have the same
// shape ([]string, and a one-element feed is a one-element slice). This is the
// only place the distinction is handled.
type fieldBag map[string][]string

// Direct leaves of the record are filed under their own name. A leaf below a
// container is filed under its path ("shipping/price") and its value is also
// appended under the container name, so <images><image>a</image></images> is
// reachable as "images" and <Category><Name>x</Name></Category> never shadows
// the record's own <Name>.
func collapse(el *element) fieldBag {
	bag := fieldBag{}
	for i := range el.Children {
		collect(bag, "", &el.Children[i])
	}
	return bag
}

func collect(bag fieldBag, prefix string, el *element) []string {
	key := prefix + strings.ToLower(el.XMLName.Local)
	if len(el.Children) == 0 {
		v := strings.TrimSpace(el.Text)
		if v == "" {
			v = linkAttr(el)
		}
		bag[key] = append(bag[key], v)
		return []string{v}
	}

	var leaves []string
	for i := range el.Children {
		leaves = append(leaves, collect(bag, key+"/", &el.Children[i])...)
	}
	bag[key] = append(bag[key], leaves...)
	return leaves
}

func linkAttr(el *element) string {
	for _, a := range el.Attrs {
		switch strings.ToLower(a.Name.Local) {
		case "url", "href", "src":
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// first returns the first value of the first alias present, or nil when none
// of the aliases occur at all.
func (b fieldBag) first(aliases ...string) *string {
	for _, a := range aliases {
		if vals, ok := b[a]; ok && len(vals) > 0 {
			v := vals[0]
			for _, candidate := range vals {
				if candidate != "" {
					v = candidate
					break
				}
			}
			return &v
		}
	}
	return nil
}

// all returns every non-empty value across aliases, deduplicated.
func (b fieldBag) all(aliases ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range aliases {
		for _, v := range b[a] {
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func (b fieldBag) joined(sep string, aliases ...string) *string {
	vals := b.all(aliases...)
	if len(vals) == 0 {
		return b.first(aliases...)
	}
	s := strings.Join(vals, sep)
	return &s
}

var (
	skuAliases         = []string{"sku", "id", "productid", "product_id"}
	nameAliases        = []string{"name", "title", "productname"}
	descriptionAliases = []string{"description", "longdescription", "desc"}
	priceAliases       = []string{"price", "saleprice", "sale_price"}
	saleAliases        = []string{"saleprice", "sale_price"}
	shippingAliases    = []string{"shipping/price", "shipping", "shippingprice", "shipping_price"}
	originalAliases    = []string{"originalprice", "regularprice", "oldprice", "ordinaryprice"}
	stockAliases       = []string{"instock", "stock", "availability", "in_stock"}
	categoryAliases    = []string{"category", "categories", "producttype", "product_type"}
	brandAliases       = []string{"brand", "manufacturer"}
	imageAliases       = []string{"imageurl", "image", "image_link", "imagelink", "images"}
	extraImageAliases  = []string{"additionalimageurl", "additional_image_link", "additionalimages"}
	productURLAliases  = []string{"producturl", "url", "link"}
	eanAliases         = []string{"ean", "gtin"}
	articleAliases     = []string{"manufacturerarticlenumber", "mpn"}
)

func toRecord(b fieldBag) models.RawFeedRecord {
	rec := models.RawFeedRecord{
		SKU:           b.first(skuAliases...),
		Name:          b.first(nameAliases...),
		Description:   b.first(descriptionAliases...),
		Price:         b.first(priceAliases...),
		OriginalPrice: b.first(originalAliases...),
		Currency:      b.first("currency"),
		Shipping:      b.first(shippingAliases...),
		InStock:       b.first(stockAliases...),
		Category:      b.joined(", ", categoryAliases...),
		Brand:         b.first(brandAliases...),
		ImageURL:      b.first(imageAliases...),
		ProductURL:    b.first(productURLAliases...),
		TrackingURL:   b.first("trackingurl"),
		EAN:           b.first(eanAliases...),
		ArticleNumber: b.first(articleAliases...),
		Extras:        b.first("extras"),
	}

	// Google-style feeds carry the regular price in <price> next to <sale_price>.
	if sale, regular := b.first(saleAliases...), b.first("price"); sale != nil && regular != nil {
		rec.Price = sale
		if rec.OriginalPrice == nil {
			rec.OriginalPrice = regular
		}
	}

	primary := models.Str(rec.ImageURL)
	for _, img := range append(b.all(imageAliases...), b.all(extraImageAliases...)...) {
		if img != primary && !contains(rec.AdditionalImages, img) {
			rec.AdditionalImages = append(rec.AdditionalImages, img)
		}
	}
	return rec
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
