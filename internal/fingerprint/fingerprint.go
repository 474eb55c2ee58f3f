// Package fingerprint derives stable content hashes used as the sole
// deduplication key. Two files with the same extracted text and embedded
// code payload fingerprint identically regardless of file name.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// MaxTextRunes caps how much normalized text contributes to the hash.
// Fixed so the fingerprint is byte-stable across platforms.
const MaxTextRunes = 5000

// Fingerprint hashes normalized text plus the embedded code payload.
// The hash input is UTF-8: normalize(text) truncated to MaxTextRunes runes,
// a "|" separator, then the embedded code (empty when absent).
func Fingerprint(text, embeddedCode string) string {
	normalized := Normalize(text)
	if runes := []rune(normalized); len(runes) > MaxTextRunes {
		normalized = string(runes[:MaxTextRunes])
	}

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte("|"))
	h.Write([]byte(embeddedCode))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize collapses all whitespace runs to single spaces and trims.
// Letter case is preserved.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
