package tabular

import (
	"math"
	"strconv"
	"strings"
)

// Float parses a decimal accepting ',' as the decimal separator. ok is false for
// empty, malformed or non-finite input.
func Float(raw string) (value float64, ok bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FloatOr is Float with a fallback.
func FloatOr(raw string, fallback float64) float64 {
	if v, ok := Float(raw); ok {
		return v
	}
	return fallback
}

// Percent parses values like "87%" or "87,5 %".
func Percent(raw string) (float64, bool) {
	return Float(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%")))
}

// Int parses an integer, also accepting a decimal written with a comma and
// truncating it.
func Int(raw string) (int, bool) {
	v, ok := Float(raw)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// List splits a multi-valued cell on ',' or '|', dropping empty entries.
func List(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Bool reads yes/no style cells in the languages the registry exports use.
func Bool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "oui", "o", "ya", "x":
		return true
	default:
		return false
	}
}
