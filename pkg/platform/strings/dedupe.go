// Package strings provides list normalization helpers for configuration and
// request input.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims and lowercases every element, then drops empties
// and duplicates. Order of first occurrence is preserved.
//
// Example:
//
//	DedupeAndTrimLower([]string{" GDPR ", "usp", "gdpr", ""})
//	// Returns: []string{"gdpr", "usp"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		norm := strings.ToLower(strings.TrimSpace(v))
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// SplitList splits a separator-delimited setting such as "gdpr, usp,GPP" and
// normalizes it with DedupeAndTrimLower. An empty input yields nil.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrimLower(strings.Split(raw, sep))
}
