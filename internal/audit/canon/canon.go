// Package canon normalizes claim values into comparison-safe forms.
//
// Equality of canonical values is the sole criterion for "the same fact
// across documents". Canonicalization is literal: diacritic and abbreviation
// equivalence is the adjudicator's job, which receives raw values too.
package canon

import (
	"strings"
	"unicode"
)

// Identifier strips every non-digit character. It never validates length or
// checksum; a short result is kept as-is. Only an empty result is unusable
// for equality comparison.
func Identifier(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Text lower-cases, collapses runs of whitespace to one space, and trims the
// ends. Idempotent.
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte(' ')
			inSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Date trims a textual date. Dates stay in their original DD/MM/YYYY form;
// parsing happens only in the derived-fact calculator.
func Date(s string) string {
	return strings.TrimSpace(s)
}
