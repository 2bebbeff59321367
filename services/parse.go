package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// priceCharsRegexp strips currency symbols, units and spaces, keeping
	// digits and both decimal separators.
	priceCharsRegexp = regexp.MustCompile(`[^0-9.,]`)
	// intRegexp captures the first integer in an extras value ("40 cm" -> 40)
	intRegexp = regexp.MustCompile(`\d+`)
)

var errNoDigits = errors.New("no digits")

// ParsePrice reads feed prices such as "499", "499.00", "1 299,00 kr" and
// "SEK 1.299,50". The right-most separator is taken as the decimal point.
// negative reports a leading minus sign, which validation rejects.
func ParsePrice(raw string) (value float64, negative bool, err error) {
	raw = strings.TrimSpace(raw)
	negative = strings.HasPrefix(raw, "-")

	cleaned := priceCharsRegexp.ReplaceAllString(raw, "")
	if strings.Trim(cleaned, ".,") == "" {
		return 0, negative, errNoDigits
	}

	if i := strings.LastIndexAny(cleaned, ".,"); i >= 0 {
		intPart := strings.NewReplacer(".", "", ",", "").Replace(cleaned[:i])
		cleaned = intPart + "." + cleaned[i+1:]
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, negative, err
	}
	return v, negative, nil
}

// priceOrZero is ParsePrice for optional fields.
func priceOrZero(raw string) float64 {
	v, neg, err := ParsePrice(raw)
	if err != nil || neg {
		return 0
	}
	return v
}

// ParseInStock treats an absent or empty flag as in stock.
func ParseInStock(raw *string) bool {
	if raw == nil {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(*raw)) {
	case "", "true", "yes", "ja", "1", "in stock", "instock", "in_stock":
		return true
	default:
		return false
	}
}

// ParseExtras splits "key=value;key=value" into a map. Pairs without a key
// or a value are skipped; keys are lower-cased.
func ParseExtras(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if ok && k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func firstInt(s string) int {
	m := intRegexp.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}
