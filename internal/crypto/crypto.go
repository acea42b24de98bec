package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes
	DigestSize   = 32     // PBKDF2 output size
	DefaultIters = 210000 // Default PBKDF2 iterations (OWASP minimum)
)

// KDF handles digest derivation from secrets
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a fresh random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: DefaultIters,
	}, nil
}

// Derive derives the storage digest for a secret
func (k *KDF) Derive(secret []byte) []byte {
	return pbkdf2.Key(secret, k.Salt, k.Iterations, DigestSize, sha256.New)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
