// Package strings provides the normalization helpers shared by identifier
// extraction, dedup keys, and cache keys. Keeping them in one place is what
// guarantees that "the same identifier" means the same thing in every layer.
package strings

import (
	"strings"
	"unicode"
)

// NormalizeKey lowercases and trims a raw identifier value. Dedup keys and
// cache keys are both built from this form.
func NormalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Digits strips everything but decimal digits. Phone numbers are compared
// in this form so "099-123-456" and "099 123 456" collide.
func Digits(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpaces trims and folds internal whitespace runs to single spaces.
// Name candidates are normalized with this before filtering.
func CollapseSpaces(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved. Used to build the
// criteria_used lists reported by structured search.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
