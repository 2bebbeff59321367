package models

import (
	"sort"
	"time"
)

// Catalog is the persisted product document: id -> product plus metadata.
type Catalog struct {
	GeneratedAt   time.Time                    `json:"generatedAt"`
	TotalProducts int                          `json:"totalProducts"`
	Partners      []string                     `json:"partners"`
	Products      map[string]*CanonicalProduct `json:"products"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{Partners: []string{}, Products: make(map[string]*CanonicalProduct)}
}

// Clone copies the catalog and every product struct, skipping nil entries.
// Slices inside products are shared; callers replace them rather than mutate
// them.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		GeneratedAt:   c.GeneratedAt,
		TotalProducts: c.TotalProducts,
		Partners:      append([]string{}, c.Partners...),
		Products:      make(map[string]*CanonicalProduct, len(c.Products)),
	}
	for id, p := range c.Products {
		if p == nil {
			continue
		}
		cp := *p
		out.Products[id] = &cp
	}
	return out
}

// Refresh recomputes TotalProducts and Partners from Products.
func (c *Catalog) Refresh() {
	seen := map[string]bool{}
	c.Partners = make([]string, 0, len(c.Partners))
	for id, p := range c.Products {
		if p == nil {
			delete(c.Products, id)
			continue
		}
		if !seen[p.PartnerID] {
			seen[p.PartnerID] = true
			c.Partners = append(c.Partners, p.PartnerID)
		}
	}
	sort.Strings(c.Partners)
	c.TotalProducts = len(c.Products)
}

// SortedIDs returns product ids in lexical order.
func (c *Catalog) SortedIDs() []string {
	ids := make([]string, 0, len(c.Products))
	for id := range c.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
