// Package fieldcrypt encrypts sensitive audit payloads at rest. Change sets
// attached to audit events can carry personal information, so stores seal
// them with AES-256-GCM before persistence when a master key is configured.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// Cipher seals and opens byte payloads with a key derived from a master
// secret. A nil *Cipher is valid and passes data through unchanged, so
// callers can treat encryption as optional configuration.
type Cipher struct {
	aead cipher.AEAD
}

// New derives an AES-256 key from the master secret via HKDF-SHA256 and
// returns a ready Cipher. The info string binds the derived key to its use
// so the same master secret can safely serve multiple purposes.
func New(masterSecret, info string) (*Cipher, error) {
	if masterSecret == "" {
		return nil, nil
	}

	key := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(info))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive field key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init field cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init field aead: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns a base64 token with the nonce prepended.
// A nil Cipher returns the input unchanged.
func (c *Cipher) Seal(plaintext []byte) (string, error) {
	if c == nil {
		return string(plaintext), nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal. A nil Cipher returns the input
// unchanged.
func (c *Cipher) Open(token string) ([]byte, error) {
	if c == nil {
		return []byte(token), nil
	}

	raw, err := base64.RawStdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode field token: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return nil, fmt.Errorf("field token too short")
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open field token: %w", err)
	}
	return plaintext, nil
}
