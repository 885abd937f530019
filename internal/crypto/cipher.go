// Package crypto implements the at-rest protection for user-supplied API keys.
//
// Each secret is sealed with its own AES-256-GCM key, derived with PBKDF2 from
// the operator-provisioned master secret and a fresh random salt. The sealed
// blob layout is fixed:
//
//	salt (16) || nonce (16) || tag (16) || ciphertext
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length of the per-secret PBKDF2 salt in bytes.
	SaltSize = 16
	// NonceSize is the length of the GCM nonce in bytes.
	NonceSize = 16
	// TagSize is the length of the GCM authentication tag in bytes.
	TagSize = 16
	// KeySize is the derived AES-256 key length in bytes.
	KeySize = 32
	// Iterations is the PBKDF2-HMAC-SHA256 work factor.
	Iterations = 100_000

	headerSize = SaltSize + NonceSize + TagSize
)

var (
	// ErrMasterSecretMissing is returned by every Cipher operation when no
	// master secret was provisioned. It is a configuration error, not a
	// decryption failure.
	ErrMasterSecretMissing = errors.New("encryption secret not configured")

	// ErrEmptyPlaintext is returned by Encrypt for an empty secret.
	ErrEmptyPlaintext = errors.New("plaintext is empty")

	// ErrDecryptionFailed is returned when a blob is malformed, truncated, or
	// fails authentication. No partial plaintext accompanies it.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Cipher seals and opens single secrets under a master secret.
type Cipher struct {
	master []byte // sha256(master secret); nil when not configured.
	rand   io.Reader
}

// NewCipher creates a Cipher from the operator's master secret. An empty
// secret yields a Cipher whose operations all return ErrMasterSecretMissing.
func NewCipher(masterSecret string) *Cipher {
	c := &Cipher{rand: rand.Reader}
	if masterSecret != "" {
		sum := sha256.Sum256([]byte(masterSecret))
		c.master = sum[:]
	}
	return c
}

// Configured reports whether a master secret is present.
func (c *Cipher) Configured() bool {
	return c != nil && c.master != nil
}

// DeriveKey stretches masterSecret with salt into a 32-byte AES key.
func DeriveKey(masterSecret, salt []byte) []byte {
	return pbkdf2.Key(masterSecret, salt, Iterations, KeySize, sha256.New)
}

// Encrypt seals plaintext and returns salt || nonce || tag || ciphertext.
func (c *Cipher) Encrypt(plaintext string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrMasterSecretMissing
	}
	if plaintext == "" {
		return nil, ErrEmptyPlaintext
	}

	header := make([]byte, SaltSize+NonceSize, headerSize+len(plaintext))
	if _, err := io.ReadFull(c.rand, header); err != nil {
		return nil, fmt.Errorf("read salt and nonce: %w", err)
	}
	salt, nonce := header[:SaltSize], header[SaltSize:]

	key := DeriveKey(c.master, salt)
	defer clear(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// Seal produces ciphertext || tag; the stored layout puts the tag first.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	blob := append(header, tag...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. Any malformed or tampered input
// yields ErrDecryptionFailed.
func (c *Cipher) Decrypt(blob []byte) (string, error) {
	if !c.Configured() {
		return "", ErrMasterSecretMissing
	}
	if len(blob) <= headerSize {
		return "", fmt.Errorf("%w: blob too short", ErrDecryptionFailed)
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize : SaltSize+NonceSize]
	tag := blob[SaltSize+NonceSize : headerSize]
	ciphertext := blob[headerSize:]

	key := DeriveKey(c.master, salt)
	defer clear(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return string(plaintext), nil
}

// EncryptString is Encrypt followed by EncodeBlob.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	blob, err := c.Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	return EncodeBlob(blob), nil
}

// DecryptString is DecodeBlob followed by Decrypt.
func (c *Cipher) DecryptString(encoded string) (string, error) {
	if !c.Configured() {
		return "", ErrMasterSecretMissing
	}
	blob, err := DecodeBlob(encoded)
	if err != nil {
		return "", err
	}
	return c.Decrypt(blob)
}

// EncodeBlob renders a sealed blob as standard base64 for text columns.
func EncodeBlob(blob []byte) string {
	return base64.StdEncoding.EncodeToString(blob)
}

// DecodeBlob parses the base64 storage form. Invalid input is reported as a
// decryption failure.
func DecodeBlob(encoded string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encoding", ErrDecryptionFailed)
	}
	return blob, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCMWithNonceSize: %w", err)
	}
	return gcm, nil
}
