// Package envelope implements the authenticated-encryption layer
// (spec.md §4.D): a ChaCha20-Poly1305 cipher bound to a key loaded
// from disk, wrapping plaintext into a self-describing envelope of
// ciphertext || tag || nonce.
package envelope

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ashgrove-labs/dnscamo/internal/errors"
)

// KeySize is the length in octets of the symmetric key (spec.md §3:
// "the key is 32 octets").
const KeySize = chacha20poly1305.KeySize

// NonceSize is the length in octets of the AEAD nonce.
const NonceSize = chacha20poly1305.NonceSize

// Cipher binds a loaded key to the AEAD primitive. The zero value is
// not usable; construct with LoadKey.
type Cipher struct {
	aead cipherAEAD
}

// cipherAEAD is the subset of cipher.AEAD this package exercises, kept
// narrow so tests can substitute a fake without pulling in the crypto
// package.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// LoadKey reads exactly KeySize octets from path and builds a Cipher
// bound to that key.
//
// Per spec.md §9's corrected open question, a key file that cannot be
// read or that is shorter than KeySize is never papered over with a
// substitute key: LoadKey fails loudly with a *errors.KeyUnreadableError
// so the caller aborts rather than running with a key nobody chose.
func LoadKey(path string) (*Cipher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errors.KeyUnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(f, key); err != nil {
		return nil, &errors.KeyUnreadableError{Path: path, Err: err}
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, &errors.KeyUnreadableError{Path: path, Err: err}
	}
	return &Cipher{aead: aead}, nil
}

// NewFromAEAD builds a Cipher directly from an already-constructed
// AEAD, for tests that want to exercise the envelope format without a
// key file.
func NewFromAEAD(aead cipherAEAD) *Cipher {
	return &Cipher{aead: aead}
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// envelope ciphertext || tag || nonce (spec.md §4.D Encrypt).
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, &errors.FormatError{Operation: "encrypt", Message: "reading random nonce: " + err.Error()}
	}

	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	envelope := make([]byte, 0, len(sealed)+NonceSize)
	envelope = append(envelope, sealed...)
	envelope = append(envelope, nonce...)
	return envelope, nil
}

// Decrypt recovers the plaintext from envelope (spec.md §4.D Decrypt).
//
// Trailing zero octets are stripped from envelope before the nonce is
// split off, matching the open bug preserved verbatim from the
// original prototype (spec.md §9 "Trailing-zero trimming"): when the
// true nonce legitimately ends in zero octets, this trim eats part of
// the nonce and authentication fails. That collision is not worked
// around here; it is the documented open question, not a defect to
// silently fix.
func (c *Cipher) Decrypt(envelope []byte) ([]byte, error) {
	trimmed := bytes.TrimRight(envelope, "\x00")

	if len(trimmed) < NonceSize {
		return nil, &errors.AuthFailedError{Err: &errors.FormatError{
			Operation: "decrypt",
			Message:   "envelope shorter than one nonce after trailing-zero trim",
		}}
	}

	split := len(trimmed) - NonceSize
	nonce := trimmed[split:]
	ciphertext := trimmed[:split]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &errors.AuthFailedError{Err: err}
	}
	return plaintext, nil
}
