package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tagRegexp     = regexp.MustCompile(`<[^>]*>`)
	nonSlugRegexp = regexp.MustCompile(`[^a-z0-9]+`)
)

// Fold lower-cases s and strips diacritics ("Bröllop" -> "brollop"), so keyword
// tables only need plain ASCII spellings.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Slugify folds s and joins its alphanumeric runs with single dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugRegexp.ReplaceAllString(Fold(s), "-"), "-")
}

// StripHTML removes tags, unescapes entities and collapses whitespace.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return CollapseSpace(html.UnescapeString(tagRegexp.ReplaceAllString(s, " ")))
}

// CollapseSpace trims s and collapses internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// TruncateWords shortens s to at most max runes, cutting at the last space
// when there is one, and terminates the result with "...".
func TruncateWords(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if unicode.IsSpace(r[max]) {
		return strings.TrimRight(cut, " ,.;:") + "..."
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
