// Package crypto provides AES-256-GCM encryption for token records persisted
// at rest. Each encryption uses a fresh random nonce, and decryption is
// authenticated: a wrong key or tampered ciphertext fails instead of
// returning garbage.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"activity-guard/internal/common/errors"
)

// RecordEncryptor handles encryption and decryption of serialized token
// records using AES-256-GCM. It is safe for concurrent use.
type RecordEncryptor struct {
	key []byte // 32-byte AES-256 key derived from the configured passphrase
}

// NewRecordEncryptor derives a 32-byte AES-256 key from the provided
// passphrase using PBKDF2 and returns an encryptor. The passphrase comes
// from process configuration and must not be empty.
func NewRecordEncryptor(key string) (*RecordEncryptor, error) {
	if key == "" {
		return nil, errors.ValidationError("encryption key cannot be empty")
	}

	// Static salt keeps key derivation deterministic across restarts
	salt := []byte("activity-guard-secret-store")
	derivedKey := pbkdf2.Key([]byte(key), salt, 10000, 32, sha256.New)

	return &RecordEncryptor{key: derivedKey}, nil
}

// Encrypt seals the plaintext with AES-256-GCM. The random nonce is
// prepended to the ciphertext so Decrypt can recover it.
func (e *RecordEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, errors.InternalError("failed to create cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.InternalError("failed to create GCM", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.InternalError("failed to create nonce", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt and verifies its integrity.
// Tampered or corrupted data, or data encrypted with a different key,
// returns an error rather than plaintext.
func (e *RecordEncryptor) Decrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, errors.InternalError("failed to create cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.InternalError("failed to create GCM", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.ValidationError("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.InternalError("failed to decrypt", err)
	}

	return plaintext, nil
}
