package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("a  b\t\nc"))
	assert.Equal(t, "hello world", Normalize("  hello \r\n  world  "))
	assert.Equal(t, "", Normalize(" \t\n "))
	assert.Equal(t, "Case Preserved", Normalize("Case  Preserved"))
}

func TestFingerprintWhitespaceInvariance(t *testing.T) {
	a := Fingerprint("quarterly report\n2024 results", "")
	b := Fingerprint("  quarterly   report 2024\t\tresults ", "")
	assert.Equal(t, a, b, "whitespace differences must not change the fingerprint")
}

func TestFingerprintCaseSensitive(t *testing.T) {
	a := Fingerprint("Quarterly Report", "")
	b := Fingerprint("quarterly report", "")
	assert.NotEqual(t, a, b, "letter case is part of the content")
}

func TestFingerprintEmbeddedCode(t *testing.T) {
	withCode := Fingerprint("same text", "QR-12345")
	without := Fingerprint("same text", "")
	assert.NotEqual(t, withCode, without, "embedded code payload is part of the dedup key")

	assert.Equal(t, withCode, Fingerprint("same  text", "QR-12345"))
}

func TestFingerprintTruncation(t *testing.T) {
	prefix := strings.Repeat("x ", MaxTextRunes) // normalizes to well over the cap
	a := Fingerprint(prefix+"tail one", "")
	b := Fingerprint(prefix+"tail two", "")
	assert.Equal(t, a, b, "content beyond the truncation cap must not affect the hash")
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("stable input", "code")
	b := Fingerprint("stable input", "code")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "sha-256 hex digest")
}
