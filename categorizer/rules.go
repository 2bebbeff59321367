package categorizer

import "regexp"

// Rule matches folded (lower-case, diacritic-free) text. Before Pattern runs,
// every span matched by Exclude is blanked out, so an excluded word can never
// satisfy the rule by containing a keyword. Tag is what the rule contributes.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
	Exclude *regexp.Regexp
}

// Match reports whether the rule fires on text.
func (r Rule) Match(text string) bool {
	if r.Exclude != nil {
		text = r.Exclude.ReplaceAllString(text, " ")
	}
	return r.Pattern.MatchString(text)
}

func rule(tag, pattern string) Rule {
	return Rule{Tag: tag, Pattern: regexp.MustCompile(pattern)}
}

func ruleExcept(tag, pattern, exclude string) Rule {
	return Rule{Tag: tag, Pattern: regexp.MustCompile(pattern), Exclude: regexp.MustCompile(exclude)}
}

// mainRule selects a main category. Subs are tried in order and the first
// match wins; DefaultSub applies when none does.
type mainRule struct {
	Rule
	Subs       []Rule
	DefaultSub string
}

// crossRule adds tags when all of Requires are already present.
type crossRule struct {
	Requires []string
	Adds     []string
}

// Omsorg ("care") and its compounds contain "sorg" ("grief") but carry no
// funeral meaning.
const excludeOmsorg = `\w*omsorg\w*`

var mainRules = []mainRule{
	{
		Rule: ruleExcept("begravning",
			`begravning|kondoleans|sorgbukett|funeral|sympathy|minnesgava|\bsorg(en|e)?\b|krans`,
			excludeOmsorg+`|\w*kransbindning\w*`),
		Subs: []Rule{
			ruleExcept("begravningskransar", `krans`, `\w*kransbindning\w*`),
			rule("begravningsbuketter", `hjarta|heart`),
			rule("kondoleanser", `kondoleans`),
		},
		DefaultSub: "begravningsbuketter",
	},
	{
		Rule: rule("brollop", `brollop|\bbrud|wedding|bridal`),
		Subs: []Rule{
			rule("brudbuketter", `brudbukett|bridal bouquet`),
			rule("bordsdekoration", `\bbord|\btable`),
		},
		DefaultSub: "brollopsbuketter",
	},
	{
		Rule: rule("konstgjorda-blommor", `konstgjord|sidenblom|artificial|plastblom`),
	},
	{
		Rule: rule("foretag", `foretag|\bkontor|corporate|\boffice`),
		Subs: []Rule{
			rule("kontorsblommor", `\bkontor|\boffice`),
		},
	},
	{
		Rule: rule("presenter", `presentkort|gift ?card`),
	},
}

var flowerRules = []Rule{
	ruleExcept("rosor", `\bros\b|\brosor|\brose[sn]?\b`, `\w*frost\w*`),
	rule("tulpaner", `tulpan|tulip`),
	rule("liljor", `\blilj|\blil(y|ies)\b`),
	rule("solrosor", `solros|sunflower`),
	rule("orkideer", `orkide|orchid`),
	rule("pioner", `\bpion|peony|peonies`),
	rule("hortensia", `hortensia|hydrangea`),
	rule("amaryllis", `amaryllis`),
	rule("krysantemum", `krysantemum|chrysanthemum`),
	rule("gerbera", `gerbera`),
}

var colorRules = []Rule{
	rule("roda-blommor", `\b(rod|roda|rott|red)\b`),
	rule("rosa-blommor", `\b(rosa|pink)\b`),
	rule("vita-blommor", `\b(vit|vita|vitt|white)\b`),
	rule("gula-blommor", `\b(gul|gula|gult|yellow)\b`),
	rule("lila-blommor", `\b(lila|purple|violett)\b`),
	rule("orange-blommor", `\borange\b`),
	rule("blandade-farger", `blandad|\bmix`),
}

var occasionRules = []Rule{
	rule("fodelsedags-blommor", `fodelsedag|birthday`),
	rule("tackblommor", `\btack|\bthank`),
	rule("karlek-romantik", `karlek|romantik|romantic|\blove\b`),
	rule("mors-dag", `mors dag|mother'?s day`),
	rule("alla-hjartans-dag", `alla hjartans|valentine`),
	rule("student", `student`),
	rule("pask", `\bpask|easter`),
	ruleExcept("jul-blommor", `\bjul|christmas`, `\bjuli\b`),
	rule("gratulationer", `gratulation|grattis`),
}

var crossRules = []crossRule{
	{Requires: []string{"liljor", "vita-blommor"}, Adds: []string{"begravningsbuketter", "tackblommor"}},
	{Requires: []string{"rosor", "roda-blommor"}, Adds: []string{"karlek-romantik", "alla-hjartans-dag"}},
	{Requires: []string{"rosor", "vita-blommor"}, Adds: []string{"brudbuketter"}},
	{Requires: []string{"blandade-farger"}, Adds: []string{"fodelsedags-blommor"}},
	{Requires: []string{"rosa-blommor", "gula-blommor"}, Adds: []string{"fodelsedags-blommor"}},
}

var (
	sympathyNameRule = rule("", `\b(omtanke|langtan|frid|trost|saknad|minne)`)
	// gift variants of the sympathy lines (with chocolate, a teddy, a heart)
	sympathyGiftRule    = rule("", `choklad|nalle|hjarta|ljuv`)
	whiteLilyRule       = rule("", `vita liljor|vit lilja|white lil(y|ies)`)
	funeralMentionRule  = ruleExcept("", `\b(begravning|kondoleans|sympati|sorg(en|e)?\b)`, excludeOmsorg)
	sympathySubCategory = "minnesbuketter"
)
