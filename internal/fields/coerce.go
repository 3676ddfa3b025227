package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToNumber is the one numeric coercion rule for backend and user input.
// nil and blank strings are absent; numeric strings, JSON numbers and
// Go numbers parse; booleans count as 1 and 0; NaN, infinities and
// anything else are absent.
func ToNumber(v any) (float64, bool) {
	var f float64

	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Number is ToNumber returning nil for absent values.
func Number(v any) *float64 {
	f, ok := ToNumber(v)
	if !ok {
		return nil
	}
	return &f
}

// ParseNumber applies ToNumber to user-entered text.
func ParseNumber(s string) *float64 {
	return Number(s)
}

// FormatNumber renders a number the way it is edited: shortest exact
// decimal form, empty for nil.
func FormatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// String renders a scalar JSON value as text. Objects and arrays are
// not scalars and come back empty.
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case int, int32, int64, float32:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

// Integer reads an explicit integer. Strings holding an integer count;
// booleans and fractional numbers do not.
func Integer(v any) (int, bool) {
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, ok := ToNumber(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Object returns v as a JSON object, or an empty one.
func Object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// CoalesceNumber returns the first finite number stored under keys.
func CoalesceNumber(source map[string]any, keys []string) *float64 {
	for _, key := range keys {
		if n := Number(source[key]); n != nil {
			return n
		}
	}
	return nil
}

// CoalesceString returns the first non-blank scalar stored under keys.
func CoalesceString(source map[string]any, keys []string) string {
	_, s := CoalesceKey(source, keys)
	return s
}

// CoalesceKey is CoalesceString that also reports the key the value was
// found under.
func CoalesceKey(source map[string]any, keys []string) (string, string) {
	for _, key := range keys {
		if s := String(source[key]); strings.TrimSpace(s) != "" {
			return key, s
		}
	}
	return "", ""
}

// StringList reads a list of strings from an array or a comma separated
// string. Blank entries are dropped.
func StringList(v any) []string {
	var parts []string
	switch list := v.(type) {
	case []any:
		for _, entry := range list {
			parts = append(parts, String(entry))
		}
	case []string:
		parts = list
	case string:
		parts = strings.Split(list, ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Rest copies source without the keys in any of the groups.
func Rest(source map[string]any, groups ...[]string) map[string]any {
	consumed := make(map[string]struct{})
	for _, g := range groups {
		for _, k := range g {
			consumed[k] = struct{}{}
		}
	}

	rest := make(map[string]any)
	for k, v := range source {
		if _, ok := consumed[k]; !ok {
			rest[k] = v
		}
	}
	if len(rest) == 0 {
		return nil
	}
	return rest
}
