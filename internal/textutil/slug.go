// Package textutil normalizes free-form feed text into filesystem-safe tokens.
package textutil

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify transliterates s to ASCII, lowercases it, and joins every run of
// letters and digits with single hyphens. Anything else, underscores and
// quotes included, is a separator.
func Slugify(s string) string {
	// Compatibility forms (ligatures, full-width letters) first, so the
	// transliteration table sees canonical characters.
	if folded, _, err := transform.String(norm.NFKC, s); err == nil {
		s = folded
	}
	s = unidecode.Unidecode(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
