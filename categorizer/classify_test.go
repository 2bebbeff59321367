package categorizer

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"feed-ingest/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		title    string
		desc     string
		price    float64
		wantMain models.MainCategory
		wantSubs []string
	}{
		{
			name:     "care is not grief",
			title:    "Vårbukett",
			desc:     "Detta är omsorgsfullt gjort",
			price:    450,
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"under-500-kr"},
		},
		{
			name:     "funeral wreath",
			title:    "Begravningskrans vit",
			price:    1200,
			wantMain: models.CategoryBegravning,
			wantSubs: []string{"begravningskransar", "vita-blommor"},
		},
		{
			name:     "condolence",
			title:    "Kondoleansbukett",
			wantMain: models.CategoryBegravning,
			wantSubs: []string{"kondoleanser"},
		},
		{
			name:     "grief bouquet defaults to funeral bouquets",
			title:    "Sorgbukett",
			wantMain: models.CategoryBegravning,
			wantSubs: []string{"begravningsbuketter"},
		},
		{
			name:     "wreath binding course is not a funeral product",
			title:    "Kurs i kransbindning",
			price:    200,
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"under-300-kr", "under-500-kr"},
		},
		{
			name:     "bridal bouquet",
			title:    "Brudbukett med vita rosor",
			price:    900,
			wantMain: models.CategoryBrollop,
			wantSubs: []string{"brudbuketter", "rosor", "vita-blommor"},
		},
		{
			name:     "red roses are romantic",
			title:    "Röda rosor",
			price:    499,
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"under-500-kr", "rosor", "roda-blommor", "karlek-romantik", "alla-hjartans-dag"},
		},
		{
			name:     "white lilies",
			title:    "Vita liljor",
			price:    350,
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"under-500-kr", "liljor", "vita-blommor", "begravningsbuketter", "tackblommor", "minnesbuketter"},
		},
		{
			name:     "partner hint makes it artificial",
			tags:     []string{"konstgjord"},
			title:    "Orkidé i kruka",
			price:    299,
			wantMain: models.CategoryKonstgjord,
			wantSubs: []string{"orkideer"},
		},
		{
			name:     "office subscription",
			title:    "Kontorsblommor abonnemang",
			wantMain: models.CategoryForetag,
			wantSubs: []string{"kontorsblommor"},
		},
		{
			name:     "gift card",
			title:    "Presentkort 500 kr",
			wantMain: models.CategoryPresenter,
			wantSubs: []string{},
		},
		{
			name:     "sunflowers are not roses",
			title:    "Solrosor",
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"solrosor"},
		},
		{
			name:     "july is not christmas",
			title:    "Sommarbukett",
			desc:     "Perfekt i juli",
			wantMain: models.CategoryBuketter,
			wantSubs: []string{},
		},
		{
			name:     "christmas",
			title:    "Julbukett",
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"jul-blommor"},
		},
		{
			name:     "mixed colours suit birthdays",
			title:    "Blandad bukett",
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"blandade-farger", "fodelsedags-blommor"},
		},
		{
			name:     "pink and yellow suit birthdays",
			title:    "Rosa och gula tulpaner",
			price:    650,
			wantMain: models.CategoryBuketter,
			wantSubs: []string{"tulpaner", "rosa-blommor", "gula-blommor", "fodelsedags-blommor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.tags, tt.title, tt.desc, tt.price)
			if got.MainCategory != tt.wantMain {
				t.Errorf("main = %q; want %q", got.MainCategory, tt.wantMain)
			}
			if !reflect.DeepEqual(got.SubCategories, tt.wantSubs) {
				t.Errorf("subs = %v; want %v", got.SubCategories, tt.wantSubs)
			}
		})
	}
}

func TestSympathySuitable(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want bool
	}{
		{"Omtanke", "", true},
		{"Omtanke med choklad", "", false},
		{"Saknad", "", true},
		{"Vit lilja", "", true},
		{"Bukett", "Passar vid begravning", true},
		{"Bukett", "Med sorg i hjärtat", true},
		{"Bukett", "Detta är omsorgsfullt gjort", false},
		{"Bukett", "Bunden med omsorg", false},
		{"Röda rosor", "Till den du älskar", false},
	}

	for _, tt := range tests {
		if got := SympathySuitable(tt.name, tt.desc); got != tt.want {
			t.Errorf("SympathySuitable(%q, %q) = %v; want %v", tt.name, tt.desc, got, tt.want)
		}
	}
}

func TestRuleExclusionBlanksWholeWord(t *testing.T) {
	r := ruleExcept("x", `sorg`, excludeOmsorg)

	if r.Match("omsorgsfullt") {
		t.Error("excluded compound should not match")
	}
	if !r.Match("omsorgsfullt men med sorg") {
		t.Error("keyword outside the excluded word should still match")
	}
}

func TestBudgetTagsOnlyForBouquets(t *testing.T) {
	if got := Classify(nil, "Begravningsbukett", "", 250); got.Has("under-300-kr") {
		t.Errorf("funeral product got a budget tag: %v", got.SubCategories)
	}
	if got := Classify(nil, "Bukett", "", 0); got.Has("under-300-kr") || got.Has("under-500-kr") {
		t.Errorf("zero price got a budget tag: %v", got.SubCategories)
	}
	got := Classify(nil, "Bukett", "", 499.5)
	if got.Has("under-300-kr") || !got.Has("under-500-kr") {
		t.Errorf("499.5 kr: got %v", got.SubCategories)
	}
}

func TestClassifyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("classification is deterministic and total", prop.ForAll(
		func(tags []string, name, desc string, price float64) bool {
			a := Classify(tags, name, desc, price)
			b := Classify(tags, name, desc, price)
			return a.MainCategory.Valid() && reflect.DeepEqual(a, b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Float64Range(0, 5000),
	))

	properties.Property("sub-categories are unique", prop.ForAll(
		func(name, desc string, price float64) bool {
			seen := map[string]bool{}
			for _, s := range Classify(nil, name, desc, price).SubCategories {
				if seen[s] {
					return false
				}
				seen[s] = true
			}
			return true
		},
		gen.OneConstOf("Röda rosor", "Vita liljor", "Blandad bukett", "Brudbukett vita rosor", "Krans"),
		gen.AlphaString(),
		gen.Float64Range(0, 1000),
	))

	properties.Property("the word omsorgsfullt never changes the outcome", prop.ForAll(
		func(name, desc string, price float64) bool {
			plain := Classify(nil, name, desc, price)
			withCare := Classify(nil, name, desc+" omsorgsfullt", price)
			return reflect.DeepEqual(plain, withCare)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}
