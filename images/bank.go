package images

import (
	"fmt"
	"hash/fnv"
	"os"

	"gopkg.in/yaml.v3"

	"feed-ingest/models"
)

// BankImage is one curated image in the royalty-free bank, the generated
// illustration pool or the placeholder set.
type BankImage struct {
	URL     string `yaml:"url"`
	AltText string `yaml:"altText,omitempty"`
	License string `yaml:"license,omitempty"`
	Width   int    `yaml:"width,omitempty"`
	Height  int    `yaml:"height,omitempty"`
	Format  string `yaml:"format,omitempty"`
}

// Bank holds the read-only lookup tables used by the fallback tiers.
// RoyaltyFree keys are sub-category slugs, main categories, or
// "<mainCategory>:<color>"; Generated and Placeholders are keyed by main
// category.
type Bank struct {
	RoyaltyFree  map[string][]BankImage `yaml:"royaltyFree"`
	Generated    map[string][]BankImage `yaml:"generated"`
	Placeholders map[string]BankImage   `yaml:"placeholders"`
}

func rf(url, alt string) BankImage {
	return BankImage{URL: url, AltText: alt, License: "cc0", Width: 800, Height: 600, Format: "webp"}
}

// DefaultBank returns the built-in image tables.
func DefaultBank() *Bank {
	const base = "/images/royalty-free/"
	b := &Bank{
		RoyaltyFree: map[string][]BankImage{
			"roda-blommor": {
				rf(base+"red-roses-01.webp", "Vacker bukett med röda rosor"),
				rf(base+"red-roses-02.webp", "Arrangemang med röda rosor"),
			},
			"rosa-blommor":        {rf(base+"pink-flowers-01.webp", "Bukett med rosa blommor")},
			"vita-blommor":        {rf(base+"white-flowers-01.webp", "Elegant arrangemang med vita blommor")},
			"rosor":               {rf(base+"roses-mixed-01.webp", "Bukett med blandade rosor")},
			"tulpaner":            {rf(base+"tulips-01.webp", "Färgglada tulpaner")},
			"begravning":          {rf(base+"funeral-flowers-01.webp", "Värdiga begravningsblommor")},
			"brollop":             {rf(base+"wedding-flowers-01.webp", "Bröllopsblommor")},
			"presenter":           {rf(base+"gift-flowers-01.webp", "Present med blommor")},
			"konstgjorda-blommor": {rf(base+"artificial-flowers-01.webp", "Konstgjorda sidenblommor")},
			"buketter": {
				rf(base+"bouquet-general-01.webp", "Vacker blombukett"),
				rf(base+"bouquet-general-02.webp", "Färgglatt blomsterarrangemang"),
			},
		},
		Generated:    map[string][]BankImage{},
		Placeholders: map[string]BankImage{},
	}

	placeholders := map[models.MainCategory]string{
		models.CategoryBuketter:   "bouquet",
		models.CategoryBegravning: "funeral",
		models.CategoryBrollop:    "wedding",
		models.CategoryForetag:    "corporate",
		models.CategoryPresenter:  "gift",
		models.CategoryKonstgjord: "artificial",
	}
	for cat, name := range placeholders {
		b.Placeholders[string(cat)] = BankImage{
			URL:     "/images/placeholders/" + name + "-placeholder.svg",
			License: "partner_provided",
			Width:   400,
			Height:  400,
			Format:  "svg",
		}
		var pool []BankImage
		for i := 1; i <= 3; i++ {
			pool = append(pool, BankImage{
				URL:     fmt.Sprintf("/images/generated/%s-%02d.webp", name, i),
				License: "ai_generated",
				Width:   1024,
				Height:  1024,
				Format:  "webp",
			})
		}
		b.Generated[string(cat)] = pool
	}
	return b
}

// LoadBank reads a YAML bank file. Tables present in the file replace the
// built-in ones; absent tables keep their defaults.
func LoadBank(path string) (*Bank, error) {
	b := DefaultBank()
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("images: read bank: %w", err)
	}
	var file Bank
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("images: parse bank %q: %w", path, err)
	}
	if file.RoyaltyFree != nil {
		b.RoyaltyFree = file.RoyaltyFree
	}
	if file.Generated != nil {
		b.Generated = file.Generated
	}
	for k, v := range file.Placeholders {
		b.Placeholders[k] = v
	}
	return b, nil
}

// pick selects one image deterministically: the same key always maps to the
// same entry while the pool is unchanged.
func pick(pool []BankImage, key string) BankImage {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return pool[int(h.Sum32()%uint32(len(pool)))]
}
