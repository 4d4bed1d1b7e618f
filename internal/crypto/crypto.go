package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt marks a decryption failure: malformed ciphertext, truncated
// input, or a key mismatch. Callers classify per-channel credential failures
// with errors.Is against this sentinel.
var ErrDecrypt = errors.New("decrypt failed")

// Vault handles AES-256-GCM encryption and decryption of channel delivery
// credentials at rest.
type Vault struct {
	gcm cipher.AEAD
}

// NewVault creates a new Vault with the provided base64-encoded key.
// The key must be exactly 32 bytes (AES-256) after base64 decoding.
func NewVault(base64Key string) (*Vault, error) {
	if base64Key == "" {
		return nil, fmt.Errorf("encryption key is required")
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}

	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher block: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM mode: %w", err)
	}

	return &Vault{gcm: gcm}, nil
}

// Encrypt encrypts plaintext using AES-256-GCM and returns base64-encoded
// ciphertext with the nonce prepended. Format: base64(nonce || ciphertext).
// The context is accepted so the interface can later front a hardware-backed
// or remote key service; the local implementation does not block on it.
func (v *Vault) Encrypt(_ context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil // Empty plaintext results in empty ciphertext
	}

	nonce := make([]byte, v.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := v.gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext using AES-256-GCM and returns
// plaintext. Expects format: base64(nonce || ciphertext). Any failure wraps
// ErrDecrypt; Decrypt never returns garbage on a wrong key.
func (v *Vault) Decrypt(_ context.Context, base64Ciphertext string) (string, error) {
	if base64Ciphertext == "" {
		return "", nil // Empty ciphertext results in empty plaintext
	}

	ciphertext, err := base64.StdEncoding.DecodeString(base64Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrDecrypt, err)
	}

	nonceSize := v.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := v.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}
