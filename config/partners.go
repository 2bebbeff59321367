package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"feed-ingest/models"
)

const (
	defaultEpi = "skickablomma"

	defaultProductFeed = "https://adtraction.com/feeds/products/%s.xml"
	defaultStatusFeed  = "https://adtraction.com/feeds/status/%s.xml"
)

// PartnerTable is the injected, read-only set of partners for one run.
type PartnerTable struct {
	partners map[string]models.Partner
	order    []string
}

type partnersFile struct {
	Partners []models.Partner `yaml:"partners"`
}

// DefaultPartners returns the built-in partner definitions with their
// Adtraction feed URLs.
func DefaultPartners() []models.Partner {
	list := []models.Partner{
		{
			ID:       "cramers",
			Name:     "Cramers Blommor",
			Currency: "SEK",
			Delivery: models.DeliveryInfo{SameDayAvailable: true, CutoffTime: "14:00", StandardDays: 1},
			Tracking: models.Tracking{
				Template: "https://pin.cramersblommor.com/t/t?a=1954033070&as=1771789045&t=2&tk=1&url={ProductUrl}",
				Epi:      defaultEpi,
			},
		},
		{
			ID:       "interflora",
			Name:     "Interflora",
			Currency: "SEK",
			Delivery: models.DeliveryInfo{SameDayAvailable: true, CutoffTime: "13:00", StandardDays: 1},
			Tracking: models.Tracking{
				Template: "https://go.adt246.net/t/t?a=767510657&as=1771789045&t=2&tk=1&url={ProductUrl}",
				Epi:      defaultEpi,
			},
		},
		{
			ID:            "fakeflowers",
			Name:          "Fakeflowers",
			Currency:      "SEK",
			Delivery:      models.DeliveryInfo{SameDayAvailable: false, StandardDays: 2},
			CategoryHints: []string{"konstgjord"},
			Tracking: models.Tracking{
				Template: "https://go.fakeflowers.se/t/t?a=1998457785&as=1771789045&t=2&tk=1&url={ProductUrl}",
				Epi:      defaultEpi,
			},
		},
		{
			ID:       "myperfectday",
			Name:     "My Perfect Day",
			Currency: "SEK",
			Delivery: models.DeliveryInfo{SameDayAvailable: false, StandardDays: 3},
			Tracking: models.Tracking{
				Template: "https://in.myperfectday.se/t/t?a=1615913086&as=1771789045&t=2&tk=1&url={ProductUrl}",
				Epi:      defaultEpi,
			},
		},
	}
	for i := range list {
		list[i].ProductFeed = fmt.Sprintf(defaultProductFeed, list[i].ID)
		list[i].StatusFeed = fmt.Sprintf(defaultStatusFeed, list[i].ID)
	}
	return list
}

// LoadPartners builds the partner table from a YAML file, or from the
// built-in defaults when path is empty. ADTRACTION_<ID>_PRODUCT_FEED and
// ADTRACTION_<ID>_STATUS_FEED override the feed URLs in both cases.
func LoadPartners(path string) (*PartnerTable, error) {
	list := DefaultPartners()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read partners file: %w", err)
		}
		var pf partnersFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("config: parse partners file %q: %w", path, err)
		}
		list = pf.Partners
	}

	for i := range list {
		applyEnvOverrides(&list[i])
	}
	return NewPartnerTable(list)
}

// NewPartnerTable validates the list and fills defaults.
func NewPartnerTable(list []models.Partner) (*PartnerTable, error) {
	t := &PartnerTable{partners: make(map[string]models.Partner, len(list))}
	for _, p := range list {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		if p.ID == "" {
			return nil, fmt.Errorf("config: partner without id")
		}
		if _, dup := t.partners[p.ID]; dup {
			return nil, fmt.Errorf("config: duplicate partner %q", p.ID)
		}
		p.ProductFeed = strings.TrimSpace(p.ProductFeed)
		if p.ProductFeed == "" && p.IsEnabled() {
			return nil, fmt.Errorf("config: partner %q has no productFeed", p.ID)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if p.Currency == "" {
			p.Currency = "SEK"
		}
		if p.Delivery.StandardDays <= 0 {
			p.Delivery.StandardDays = 2
		}
		t.partners[p.ID] = p
		t.order = append(t.order, p.ID)
	}
	return t, nil
}

func applyEnvOverrides(p *models.Partner) {
	prefix := "ADTRACTION_" + strings.ToUpper(p.ID)
	if v := os.Getenv(prefix + "_PRODUCT_FEED"); v != "" {
		p.ProductFeed = v
	}
	if v := os.Getenv(prefix + "_STATUS_FEED"); v != "" {
		p.StatusFeed = v
	}
}

// Get returns the partner with the given id.
func (t *PartnerTable) Get(id string) (models.Partner, bool) {
	p, ok := t.partners[strings.ToLower(id)]
	return p, ok
}

// All returns partners in declaration order.
func (t *PartnerTable) All() []models.Partner {
	out := make([]models.Partner, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.partners[id])
	}
	return out
}

// IDs returns the partner ids, sorted.
func (t *PartnerTable) IDs() []string {
	ids := append([]string{}, t.order...)
	sort.Strings(ids)
	return ids
}

// Select returns the partners to ingest: just the one named by filter, or
// every enabled partner when filter is empty.
func (t *PartnerTable) Select(filter string) ([]models.Partner, error) {
	if filter == "" {
		var out []models.Partner
		for _, p := range t.All() {
			if p.IsEnabled() {
				out = append(out, p)
			}
		}
		return out, nil
	}
	p, ok := t.Get(filter)
	if !ok {
		return nil, fmt.Errorf("unknown partner %q (available: %s)", filter, strings.Join(t.IDs(), ", "))
	}
	if p.ProductFeed == "" {
		return nil, fmt.Errorf("partner %q has no productFeed", p.ID)
	}
	return []models.Partner{p}, nil
}
