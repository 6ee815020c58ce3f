// Package symbol normalizes provider tickers and crypto pair notations.
package symbol

import (
	"strings"
	"unicode"
)

// Symbol is a crypto pair such as BTC-USD.
type Symbol struct {
	Base  string
	Quote string
}

var fiatQuotes = []string{"USD", "EUR", "GBP"}

// Parse splits a provider crypto ticker. Anything that is not BASE-FIAT, such
// as AAPL or ISDW.L, yields the zero Symbol.
func Parse(s string) Symbol {
	s = Normalize(s)
	if s == "" {
		return Symbol{}
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return Symbol{}
	}
	for _, q := range fiatQuotes {
		if parts[1] == q {
			return Symbol{Base: parts[0], Quote: q}
		}
	}
	return Symbol{}
}

// Normalize trims and upper-cases a ticker.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeList normalizes tickers, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeList(tickers []string) []string {
	if len(tickers) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		norm := Normalize(t)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// SplitList parses a ticker list separated by commas and/or whitespace.
func SplitList(raw string) []string {
	return NormalizeList(strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	}))
}
