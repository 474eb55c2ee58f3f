// Package crypto implements the AES-128-GCM stream cipher used for files
// encrypted at rest. The wire format is fixed for cross-implementation
// compatibility: a 12-byte random IV, the ciphertext, then the 16-byte
// authentication tag appended at the end. No padding.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// IVLength is the GCM nonce size in bytes.
	IVLength = 12
	// TagLength is the GCM authentication tag size in bytes.
	TagLength = 16
	// KeyLength is the AES-128 key size in bytes.
	KeyLength = 16

	chunkSize = 8192
)

var (
	// ErrNotEncrypted indicates the input is too short to carry an IV and
	// tag, so it cannot be a valid encrypted stream.
	ErrNotEncrypted = errors.New("input is not an encrypted stream")
	// ErrDecryptFailed indicates a well-formed stream that failed
	// authentication (wrong key or corrupted data).
	ErrDecryptFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts byte streams with a fixed 16-byte key.
// It is stateless and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a 16-byte AES-128 key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeyLength {
		return nil, fmt.Errorf("aes-128 requires a %d-byte key, got %d", KeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// KeyFromString derives a 16-byte key from operator-supplied material.
// A 32-character hex string decodes directly; anything else is hashed with
// SHA-256 and truncated to 16 bytes.
func KeyFromString(s string) []byte {
	if len(s) == 2*KeyLength {
		if key, err := hex.DecodeString(s); err == nil {
			return key
		}
	}
	sum := sha256.Sum256([]byte(s))
	return sum[:KeyLength]
}

// Encrypt reads plaintext from r in 8 KiB chunks and writes the encrypted
// stream (IV, ciphertext, tag) to w.
func (c *Cipher) Encrypt(w io.Writer, r io.Reader) error {
	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("generate iv: %w", err)
	}
	if _, err := w.Write(iv); err != nil {
		return fmt.Errorf("write iv: %w", err)
	}

	// GCM seals in one shot; buffer the plaintext but keep the reads chunked
	// so arbitrary readers (pipes, network streams) are handled.
	var plaintext bytes.Buffer
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			plaintext.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read plaintext: %w", err)
		}
	}

	sealed := c.aead.Seal(nil, iv, plaintext.Bytes(), nil)
	for off := 0; off < len(sealed); off += chunkSize {
		end := min(off+chunkSize, len(sealed))
		if _, err := w.Write(sealed[off:end]); err != nil {
			return fmt.Errorf("write ciphertext: %w", err)
		}
	}
	return nil
}

// Decrypt interprets data as an encrypted stream and returns the plaintext.
// Returns ErrNotEncrypted when the input cannot be a valid stream, and
// ErrDecryptFailed when authentication fails; callers distinguish the two
// with errors.Is and fall back to treating the data as plaintext.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) < IVLength+TagLength {
		return nil, ErrNotEncrypted
	}
	iv := data[:IVLength]
	sealed := data[IVLength:]

	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plaintext, nil
}

// EncryptFile encrypts the file at inPath and writes the result to outPath.
func (c *Cipher) EncryptFile(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	if err := c.Encrypt(out, in); err != nil {
		return err
	}
	return out.Close()
}

// DecryptFile decrypts the file at inPath and writes the plaintext to outPath.
func (c *Cipher) DecryptFile(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	plaintext, err := c.Decrypt(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, plaintext, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
