package models

// DeliveryInfo describes how fast a partner ships.
type DeliveryInfo struct {
	SameDayAvailable bool   `yaml:"sameDayAvailable" json:"sameDayAvailable"`
	CutoffTime       string `yaml:"cutoffTime,omitempty" json:"cutoffTime,omitempty"`
	StandardDays     int    `yaml:"standardDays" json:"standardDays"`
}

// Tracking holds the affiliate tracking-link parameters for a partner.
// Template may contain {ProductUrl}, {epi} and {subid}.
type Tracking struct {
	Template string `yaml:"template" json:"template"`
	Epi      string `yaml:"epi,omitempty" json:"epi,omitempty"`
	SubID    string `yaml:"subid,omitempty" json:"subid,omitempty"`
}

// Partner is the immutable configuration of one feed source for a run.
type Partner struct {
	ID            string       `yaml:"id" json:"id"`
	Name          string       `yaml:"name" json:"name"`
	ProductFeed   string       `yaml:"productFeed" json:"productFeed"`
	StatusFeed    string       `yaml:"statusFeed,omitempty" json:"statusFeed,omitempty"`
	Currency      string       `yaml:"currency,omitempty" json:"currency,omitempty"`
	Transport     string       `yaml:"transport,omitempty" json:"transport,omitempty"`
	Delivery      DeliveryInfo `yaml:"delivery" json:"delivery"`
	Tracking      Tracking     `yaml:"tracking" json:"tracking"`
	CategoryHints []string     `yaml:"categoryHints,omitempty" json:"categoryHints,omitempty"`
	Enabled       *bool        `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the partner takes part in runs. Unset means enabled.
func (p Partner) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}
