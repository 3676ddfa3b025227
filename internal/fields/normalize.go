// Package fields maps the many spellings the receipts backend uses for one
// logical field onto a single canonical name, and coerces loosely typed
// JSON values into numbers and strings without ever failing.
package fields

import (
	"strings"

	"receipts/pkg/models"
)

// entityPrefixes are stripped from field identifiers before comparison.
var entityPrefixes = []string{
	"receipt.",
	"unified_files.",
	"receipt_items.",
	"accounting_proposals.",
	"items.",
	"line_items.",
	"proposals.",
}

var indexStripper = strings.NewReplacer(
	"0", "", "1", "", "2", "", "3", "", "4", "",
	"5", "", "6", "", "7", "", "8", "", "9", "",
	"+", "",
)

// Normalize reduces a field identifier to the form used for matching:
// lower case, trimmed, without digits, '+' or the empty brackets they
// leave behind, and without a leading entity prefix. So "Receipt.Merchant",
// "merchant" and "items[3].vat" vs "items.vat" compare equal.
//
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(value string) string {
	s := strings.ToLower(value)
	s = indexStripper.Replace(s)
	for strings.Contains(s, "[]") {
		s = strings.ReplaceAll(s, "[]", "")
	}
	s = strings.TrimSpace(s)

	for {
		stripped := false
		for _, prefix := range entityPrefixes {
			if strings.HasPrefix(s, prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// Match reports whether two identifiers refer to the same logical field.
func Match(a, b string) bool {
	na := Normalize(a)
	return na != "" && na == Normalize(b)
}

// ResolveBoxField returns the Field of the first box matching any of the
// candidates. Without a match it returns the first candidate unchanged, so
// callers comparing against box fields simply never match.
func ResolveBoxField(boxes []models.FieldBox, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	wanted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if n := Normalize(c); n != "" {
			wanted[n] = struct{}{}
		}
	}

	for _, box := range boxes {
		if _, ok := wanted[Normalize(box.Field)]; ok {
			return box.Field
		}
	}
	return candidates[0]
}

// FirstNonEmptyArray returns the first non-empty array stored under keys.
// If every array is empty it returns the first array present, and an
// empty slice when none of the keys holds an array.
func FirstNonEmptyArray(source map[string]any, keys []string) []any {
	var firstPresent []any
	found := false

	for _, key := range keys {
		arr, ok := source[key].([]any)
		if !ok {
			continue
		}
		if len(arr) > 0 {
			return arr
		}
		if !found {
			firstPresent, found = arr, true
		}
	}

	if found && firstPresent != nil {
		return firstPresent
	}
	return []any{}
}

// HasItems reports whether any of keys holds a non-empty array.
func HasItems(source map[string]any, keys []string) bool {
	return len(FirstNonEmptyArray(source, keys)) > 0
}
