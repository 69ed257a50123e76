// Package crypto encrypts sensitive fields at rest (AES-256-GCM).
//
// Encrypted payloads carry an "enc::" prefix so a value can be told apart
// from legacy plaintext still present in older rows.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
)

const Prefix = "enc::"

var (
	mu   sync.RWMutex
	aead cipher.AEAD
)

var ErrNotConfigured = errors.New("crypto: encryption key not configured")

// Init derives the AES key. An explicit key wins; in debug mode a key is
// derived from the session secret so local dev works without extra config.
func Init(fieldKey, sessionSecret string, debug bool) error {
	secret := fieldKey
	if secret == "" {
		if !debug {
			return ErrNotConfigured
		}
		secret = sessionSecret
	}
	if secret == "" {
		return ErrNotConfigured
	}

	sum := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return err
	}
	g, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	mu.Lock()
	aead = g
	mu.Unlock()
	return nil
}

func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Encrypt returns the enc::-prefixed ciphertext. Empty and already
// encrypted values pass through untouched.
func Encrypt(value string) (string, error) {
	if value == "" || IsEncrypted(value) {
		return value, nil
	}

	mu.RLock()
	g := aead
	mu.RUnlock()
	if g == nil {
		return "", ErrNotConfigured
	}

	nonce := make([]byte, g.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := g.Seal(nonce, nonce, []byte(value), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values without the prefix are legacy plaintext
// and are returned as-is.
func Decrypt(value string) (string, error) {
	if value == "" || !IsEncrypted(value) {
		return value, nil
	}

	mu.RLock()
	g := aead
	mu.RUnlock()
	if g == nil {
		return "", ErrNotConfigured
	}

	raw, err := base64.StdEncoding.DecodeString(value[len(Prefix):])
	if err != nil {
		return "", err
	}
	if len(raw) < g.NonceSize() {
		return "", errors.New("crypto: ciphertext too short")
	}
	plain, err := g.Open(nil, raw[:g.NonceSize()], raw[g.NonceSize():], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
