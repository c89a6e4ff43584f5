// Package sealed provides authenticated encryption for small records
// persisted to client-side storage, such as the in-progress checkout draft.
package sealed

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidKey        = errors.New("key must be 32 bytes")
	ErrMalformedEnvelope = errors.New("malformed sealed envelope")
	ErrOpenFailed        = errors.New("failed to open sealed envelope")
)

// Box seals and opens byte records with XChaCha20-Poly1305. A nil key
// degrades to plaintext passthrough so callers without a configured key
// keep working; they just lose the at-rest protection.
type Box struct {
	key []byte
}

// NewBox creates a Box. key must be nil (passthrough) or 32 bytes.
func NewBox(key []byte) (*Box, error) {
	if key != nil && len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &Box{key: key}, nil
}

// Sealing reports whether records are actually encrypted.
func (b *Box) Sealing() bool {
	return b.key != nil
}

// Seal encrypts plaintext and returns a base64 envelope with the random
// nonce prepended to the ciphertext.
func (b *Box) Seal(plaintext []byte) (string, error) {
	if b.key == nil {
		return base64.StdEncoding.EncodeToString(plaintext), nil
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts an envelope produced by Seal. Tampered or wrong-key
// envelopes return ErrOpenFailed.
func (b *Box) Open(envelope string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	if b.key == nil {
		return raw, nil
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return nil, ErrMalformedEnvelope
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}
