package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)

	messages := []string{
		"",
		"short",
		strings.Repeat("a longer message that spans multiple chunks. ", 1000),
	}

	for _, msg := range messages {
		var encrypted bytes.Buffer
		err := c.Encrypt(&encrypted, strings.NewReader(msg))
		require.NoError(t, err)

		// IV + ciphertext + tag
		assert.Equal(t, IVLength+len(msg)+TagLength, encrypted.Len())

		plaintext, err := c.Decrypt(encrypted.Bytes())
		require.NoError(t, err)
		assert.Equal(t, msg, string(plaintext))
	}
}

func TestDecryptWrongKey(t *testing.T) {
	c1, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)
	c2, err := New([]byte("fedcba9876543210"))
	require.NoError(t, err)

	var encrypted bytes.Buffer
	require.NoError(t, c1.Encrypt(&encrypted, strings.NewReader("secret content")))

	_, err = c2.Decrypt(encrypted.Bytes())
	assert.ErrorIs(t, err, ErrDecryptFailed)
	assert.NotErrorIs(t, err, ErrNotEncrypted, "wrong key must be distinguishable from not-encrypted")
}

func TestDecryptNotEncrypted(t *testing.T) {
	c, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)

	// Too short to hold IV + tag.
	_, err = c.Decrypt([]byte("plain text"))
	assert.ErrorIs(t, err, ErrNotEncrypted)
}

func TestDecryptCorrupted(t *testing.T) {
	c, err := New([]byte("0123456789abcdef"))
	require.NoError(t, err)

	var encrypted bytes.Buffer
	require.NoError(t, c.Encrypt(&encrypted, strings.NewReader("some content worth protecting")))

	data := encrypted.Bytes()
	data[IVLength+3] ^= 0xff

	_, err = c.Decrypt(data)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestKeyFromString(t *testing.T) {
	// 32 hex chars decode directly.
	key := KeyFromString("00112233445566778899aabbccddeeff")
	assert.Equal(t, []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, key)

	// Passphrases derive deterministically to 16 bytes.
	derived := KeyFromString("correct horse battery staple")
	assert.Len(t, derived, KeyLength)
	assert.Equal(t, derived, KeyFromString("correct horse battery staple"))
	assert.NotEqual(t, derived, KeyFromString("other passphrase"))
}

func TestFileRoundTrip(t *testing.T) {
	c, err := New(KeyFromString("file round trip key"))
	require.NoError(t, err)

	dir := t.TempDir()
	inPath := filepath.Join(dir, "report.txt")
	encPath := filepath.Join(dir, "report.txt.enc")
	outPath := filepath.Join(dir, "report-decrypted.txt")

	content := []byte("quarterly report contents\nwith multiple lines\n")
	require.NoError(t, os.WriteFile(inPath, content, 0o644))

	require.NoError(t, c.EncryptFile(inPath, encPath))
	require.NoError(t, c.DecryptFile(encPath, outPath))

	decrypted, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, content, decrypted)
}
