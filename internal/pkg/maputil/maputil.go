// Package maputil reads loosely typed values out of decoded JSON objects.
package maputil

import (
	"fmt"
	"strings"
	"unicode"

	"ihsan/internal/pkg/convert"

	"github.com/shopspring/decimal"
)

// Has reports whether key is present with a non-null value.
func Has(params map[string]any, key string) bool {
	if params == nil {
		return false
	}
	raw, ok := params[key]
	return ok && raw != nil
}

func String(params map[string]any, key string) string {
	if !Has(params, key) {
		return ""
	}
	switch v := params[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// Int truncates numeric values; "2020" and 2020.0 both give 2020.
func Int(params map[string]any, key string) int {
	if !Has(params, key) {
		return 0
	}
	return int(convert.ToFloat64(params[key]))
}

func Float(params map[string]any, key string) float64 {
	if !Has(params, key) {
		return 0
	}
	return convert.ToFloat64(params[key])
}

func Decimal(params map[string]any, key string) decimal.Decimal {
	if !Has(params, key) {
		return decimal.Zero
	}
	return convert.ToDecimal(params[key])
}

// Objects returns the JSON objects of an array value, skipping other items.
func Objects(params map[string]any, key string) []map[string]any {
	if !Has(params, key) {
		return nil
	}
	items, _ := params[key].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// StringSlice accepts an array of strings or a single string separated by
// commas or whitespace.
func StringSlice(params map[string]any, key string) []string {
	if !Has(params, key) {
		return nil
	}
	split := func(s string) []string {
		return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	}
	switch val := params[key].(type) {
	case []string:
		var out []string
		for _, item := range val {
			out = append(out, split(item)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, split(s)...)
			}
		}
		return out
	case string:
		return split(val)
	default:
		return nil
	}
}
