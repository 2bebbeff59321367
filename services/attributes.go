package services

import (
	"regexp"
	"strings"

	"feed-ingest/categorizer"
	"feed-ingest/models"
	"feed-ingest/utils"
)

type keyword struct {
	value   string
	pattern *regexp.Regexp
}

func kw(value, pattern string) keyword {
	return keyword{value: value, pattern: regexp.MustCompile(pattern)}
}

// All patterns run on utils.Fold output.
var (
	colorKeywords = []keyword{
		kw("rod", `\b(rod|roda|rott|red)\b`),
		kw("rosa", `\b(rosa|pink)\b`),
		kw("vit", `\b(vit|vita|vitt|white)\b`),
		kw("gul", `\b(gul|gula|gult|yellow)\b`),
		kw("lila", `\b(lila|purple|violett)\b`),
		kw("orange", `\borange\b`),
		kw("bla", `\b(bla|blatt|blue)\b`),
		kw("gron", `\b(gron|grona|gront|green)\b`),
	}

	// first match wins; "extra stor" must be tried before "stor"
	sizeKeywords = []keyword{
		kw("liten", `\b(liten|litet|sma)\b|\bmini`),
		kw("extra-stor", `extra stor|\bxl\b`),
		kw("stor", `\b(stor|stora|stort|large)\b`),
	}

	styleKeywords = []keyword{
		kw("klassisk", `klassisk|classic`),
		kw("modern", `\bmodern`),
		kw("romantisk", `romantisk|romantic`),
		kw("rustikal", `rustik|rustic`),
		kw("minimalistisk", `minimalist|\bminimal`),
	}

	suitableKeywords = []keyword{
		kw("kvinna", `\b(henne|kvinna|kvinnor|mamma|mormor|farmor)\b`),
		kw("man", `\b(honom|man|pappa|morfar|farfar)\b`),
		kw("foretag", `foretag|\bkontor`),
	}
	allaKeyword = kw("alla", `\balla\b`)

	occasionKeywords = []keyword{
		kw("fodelsedag", `fodelsedag|birthday`),
		kw("brollop", `brollop|wedding`),
		kw("begravning", `begravning|funeral`),
		kw("tack", `\btack`),
		kw("karlek", `karlek|romantic|\blove\b`),
		kw("gratulation", `gratulation|grattis`),
		kw("jul", `\bjul`),
		kw("pask", `\bpask`),
		kw("mors-dag", `mors dag`),
		kw("alla-hjartans-dag", `alla hjartans`),
	}

	moodKeywords = []keyword{
		kw("glad", `\bglad|\bhappy`),
		kw("romantisk", `romantisk|romantic`),
		kw("elegant", `elegant`),
		kw("sorgsam", `\bsorg|kondoleans`),
		kw("tacksamhet", `\btack`),
	}

	omsorgRegexp    = regexp.MustCompile(`\w*omsorg\w*`)
	juliRegexp      = regexp.MustCompile(`\bjuli\b`)
	vaseRegexp      = regexp.MustCompile(`\bvas(en|e)?\b`)
	chocolateRegexp = regexp.MustCompile(`choklad|chocolate`)
	cardRegexp      = regexp.MustCompile(`\b(kort|kortet|halsningskort)\b|\bcard\b`)
)

func matchAll(text string, kws []keyword) []string {
	out := []string{}
	for _, k := range kws {
		if k.pattern.MatchString(text) {
			out = append(out, k.value)
		}
	}
	return out
}

func matchFirst(text string, kws []keyword) string {
	for _, k := range kws {
		if k.pattern.MatchString(text) {
			return k.value
		}
	}
	return ""
}

// ExtractAttributes derives product facets from name, description and
// category text, diacritic- and case-insensitively. Extras supply measured
// values (height, width, longevity).
func ExtractAttributes(name, description, category string, extras map[string]string) models.Attributes {
	text := utils.Fold(name + " " + description + " " + category)
	text = omsorgRegexp.ReplaceAllString(text, " ")

	attrs := models.Attributes{
		Colors:      matchAll(text, colorKeywords),
		FlowerTypes: categorizer.FlowerTypes(text),
		SuitableFor: matchAll(text, suitableKeywords),
		Occasions:   matchAll(juliRegexp.ReplaceAllString(text, " "), occasionKeywords),
		Size:        matchFirst(text, sizeKeywords),
		Style:       matchFirst(text, styleKeywords),
		Mood:        matchFirst(text, moodKeywords),

		VaseIncluded:      vaseRegexp.MatchString(text),
		ChocolateIncluded: chocolateRegexp.MatchString(text),
		CardIncluded:      cardRegexp.MatchString(text),
	}
	if attrs.FlowerTypes == nil {
		attrs.FlowerTypes = []string{}
	}
	if len(attrs.Colors) > 0 {
		attrs.PrimaryColor = attrs.Colors[0]
	}
	if attrs.Size == "" {
		attrs.Size = "mellan"
	}
	if len(attrs.SuitableFor) == 0 || allaKeyword.pattern.MatchString(text) {
		attrs.SuitableFor = append(attrs.SuitableFor, "alla")
	}

	if v, ok := extras["height"]; ok {
		attrs.HeightCm = firstInt(v)
	}
	if v, ok := extras["width"]; ok {
		attrs.WidthCm = firstInt(v)
	}
	if v, ok := extras["longevity"]; ok {
		attrs.Longevity = strings.TrimSpace(v)
	}
	return attrs
}
