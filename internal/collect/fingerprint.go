package collect

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// Fingerprint returns the ledger identity of an entry title: the hex SHA-1
// of its UTF-8 bytes. New ledger rows always store this variant.
func Fingerprint(title string) string {
	sum := sha1.Sum([]byte(title))
	return hex.EncodeToString(sum[:])
}

// LegacyFingerprint hashes the title with every non-ASCII character
// dropped. Older ledgers stored this variant; it is only ever looked up.
func LegacyFingerprint(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
