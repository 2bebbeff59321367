// Package categorizer assigns a main category and sub-categories to a product
// from its tags, name, description and price. Classification is pure and
// deterministic, and every result has one of the six main categories.
package categorizer

import (
	"strings"

	"feed-ingest/models"
	"feed-ingest/utils"
)

// Result is the outcome of Classify.
type Result struct {
	MainCategory  models.MainCategory
	SubCategories []string
}

// Has reports whether tag is among the sub-categories.
func (r Result) Has(tag string) bool {
	for _, s := range r.SubCategories {
		if s == tag {
			return true
		}
	}
	return false
}

// Classify evaluates the rule tables against the combined text. The first
// matching main rule wins; with no match the product is a bouquet.
func Classify(tags []string, name, description string, price float64) Result {
	text := utils.Fold(strings.Join(tags, " ") + " " + name + " " + description)

	res := Result{MainCategory: models.CategoryBuketter}
	subs := newTagSet()

	for _, mr := range mainRules {
		if !mr.Match(text) {
			continue
		}
		res.MainCategory = models.MainCategory(mr.Tag)
		sub := mr.DefaultSub
		for _, r := range mr.Subs {
			if r.Match(text) {
				sub = r.Tag
				break
			}
		}
		if sub != "" {
			subs.add(sub)
		}
		break
	}

	if res.MainCategory == models.CategoryBuketter {
		if price > 0 && price < 300 {
			subs.add("under-300-kr")
		}
		if price > 0 && price < 500 {
			subs.add("under-500-kr")
		}
	}

	for _, table := range [][]Rule{flowerRules, colorRules, occasionRules} {
		for _, r := range table {
			if r.Match(text) {
				subs.add(r.Tag)
			}
		}
	}

	for _, cr := range crossRules {
		if subs.hasAll(cr.Requires) {
			for _, tag := range cr.Adds {
				subs.add(tag)
			}
		}
	}

	if res.MainCategory == models.CategoryBuketter && SympathySuitable(name, description) {
		subs.add(sympathySubCategory)
	}

	res.SubCategories = subs.list
	return res
}

// FlowerTypes returns the flower tags found in already folded text, in
// table order.
func FlowerTypes(folded string) []string {
	var out []string
	for _, r := range flowerRules {
		if r.Match(folded) {
			out = append(out, r.Tag)
		}
	}
	return out
}

// SympathySuitable reports whether a bouquet is explicitly meant for
// condolences: a sympathy line name (but not its gift variants), white lilies
// in the name, or funeral wording in the description.
func SympathySuitable(name, description string) bool {
	n := utils.Fold(name)
	if sympathyNameRule.Match(n) {
		return !sympathyGiftRule.Match(n)
	}
	if whiteLilyRule.Match(n) {
		return true
	}
	return funeralMentionRule.Match(utils.Fold(description))
}

// tagSet keeps insertion order and drops duplicates.
type tagSet struct {
	seen map[string]bool
	list []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: map[string]bool{}, list: []string{}}
}

func (s *tagSet) add(tag string) {
	if !s.seen[tag] {
		s.seen[tag] = true
		s.list = append(s.list, tag)
	}
}

func (s *tagSet) hasAll(tags []string) bool {
	for _, t := range tags {
		if !s.seen[t] {
			return false
		}
	}
	return true
}
