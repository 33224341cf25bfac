package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed encrypts values with XChaCha20-Poly1305 before handing them to the
// wrapped backend. The key is bound into the ciphertext as associated data,
// so a record copied under another key fails to open.
type Sealed struct {
	inner Backend
	aead  cipher.AEAD
}

// NewSealed derives a 256-bit key from secret and wraps inner.
func NewSealed(inner Backend, secret string) (*Sealed, error) {
	if secret == "" {
		return nil, errors.New("storage: empty secret")
	}
	key := blake2b.Sum256([]byte(secret))
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}
	return &Sealed{inner: inner, aead: aead}, nil
}

// Get implements Backend.
func (s *Sealed) Get(ctx context.Context, key string) (string, error) {
	encoded, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("storage: decode sealed value: %w", err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", errors.New("storage: sealed value too short")
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("storage: open sealed value: %w", err)
	}
	return string(plain), nil
}

// Set implements Backend.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("storage: nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}
