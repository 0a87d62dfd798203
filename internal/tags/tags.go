// Package tags maps free-text tags and keywords onto canonical category labels.
//
// The mapping is a static dictionary lookup: "Auth", "login" and "OAuth" all
// become "authentication". Anything the dictionary does not know passes
// through lower-cased and trimmed. Both functions are total; there is no
// input they reject.
package tags

import (
	"strings"
	"unicode/utf8"
)

// MinTagLength is the shortest normalized tag NormalizeTags keeps.
const MinTagLength = 3

var lookup = buildLookup()

func buildLookup() map[string]string {
	m := make(map[string]string)
	// Canonical labels first, so no synonym can shadow a label.
	for _, label := range canonicalOrder {
		m[label] = label
	}
	for _, label := range canonicalOrder {
		for _, syn := range dictionary[label] {
			key := strings.TrimSpace(strings.ToLower(syn))
			if _, taken := m[key]; !taken {
				m[key] = label
			}
		}
	}
	return m
}

// NormalizeTag returns the canonical label for raw, or raw lower-cased and
// trimmed when the dictionary has no entry for it.
//
// NormalizeTag is idempotent: every label it can return maps to itself.
func NormalizeTag(raw string) string {
	key := strings.TrimSpace(strings.ToLower(raw))
	if label, ok := lookup[key]; ok {
		return label
	}
	return key
}

// NormalizeTags normalizes every entry, drops duplicates and drops results
// shorter than MinTagLength characters. The result keeps first-occurrence order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		tag := NormalizeTag(r)
		if utf8.RuneCountInString(tag) < MinTagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Canonical lists every canonical label.
func Canonical() []string {
	out := make([]string, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// Synonyms returns the synonyms registered for a canonical label.
func Synonyms(label string) []string {
	syns := dictionary[label]
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}
