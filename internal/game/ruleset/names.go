package ruleset

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var folder = cases.Fold()

// NormalizeKey returns the canonical form of a catalog key: trimmed and case-folded.
// Keys compare equal when their normalized forms are equal.
//
// Postcondition: NormalizeKey(NormalizeKey(s)) == NormalizeKey(s).
func NormalizeKey(key string) string {
	return folder.String(strings.TrimSpace(key))
}

// SameKey reports whether a and b name the same catalog key.
func SameKey(a, b string) bool {
	return NormalizeKey(a) == NormalizeKey(b)
}

// KeySet builds a set of normalized keys. Empty keys are skipped.
func KeySet(keys ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, group := range keys {
		for _, k := range group {
			if n := NormalizeKey(k); n != "" {
				set[n] = true
			}
		}
	}
	return set
}

// SortByName sorts items in place by name, ignoring case. The sort is stable so
// items whose names collate equally keep their relative order.
func SortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(name(items[i]), name(items[j])) < 0
	})
}

// CompareNames orders two names case-insensitively: negative if a sorts first,
// zero if equal, positive otherwise.
func CompareNames(a, b string) int {
	return collate.New(language.Und, collate.IgnoreCase).CompareString(a, b)
}
