// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps the raw, inconsistently keyed fields each source
// returns into the common types.Record schema. Everything here is a pure
// function of its inputs.
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Raw is one upstream record flattened to field name → text. Repeated
// elements are joined by the adapter before they land here.
type Raw map[string]string

// Lookup returns the first non-empty value among aliases. Each alias is
// tried as written, trimmed, lowercase, uppercase, and capitalized.
func Lookup(raw Raw, aliases ...string) string {
	for _, alias := range aliases {
		for _, key := range keyVariants(alias) {
			if v := strings.TrimSpace(raw[key]); v != "" {
				return v
			}
		}
	}
	return ""
}

// LookupContaining returns the first non-empty value whose key contains
// substr, compared case-insensitively. Keys are scanned in sorted order so
// the result does not depend on map iteration.
func LookupContaining(raw Raw, substr string) string {
	if substr == "" {
		return ""
	}
	needle := strings.ToLower(substr)
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.Contains(strings.ToLower(k), needle) {
			continue
		}
		if v := strings.TrimSpace(raw[k]); v != "" {
			return v
		}
	}
	return ""
}

// keyVariants lists the spellings tried for one alias, without duplicates.
func keyVariants(alias string) []string {
	trimmed := strings.TrimSpace(alias)
	candidates := []string{
		alias,
		trimmed,
		strings.ToLower(trimmed),
		strings.ToUpper(trimmed),
		capitalize(trimmed),
	}
	out := candidates[:0]
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
