// Package tags canonicalizes user supplied tags.
package tags

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical form of each tag in input order, one
// output per input. Tags are lowercased, every run of whitespace becomes a
// single hyphen and every underscore becomes a hyphen. Duplicates are kept.
func Normalize(raw []string) []string {
	out := make([]string, len(raw))
	for i, t := range raw {
		out[i] = normalizeOne(t)
	}
	return out
}

func normalizeOne(tag string) string {
	tag = strings.TrimSpace(norm.NFC.String(tag))
	if tag == "" {
		return ""
	}
	tag = cases.Lower(language.Und).String(tag)

	var b strings.Builder
	b.Grow(len(tag))
	space := false
	for _, r := range tag {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte('-')
			space = false
		}
		if r == '_' {
			r = '-'
		}
		b.WriteRune(r)
	}
	return b.String()
}
