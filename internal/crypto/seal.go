package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealKey derives the at-rest sealing key from a device secret.
func SealKey(deviceSecret []byte) ([]byte, error) {
	if len(deviceSecret) == 0 {
		return nil, fmt.Errorf("%w: empty device secret", ErrInvalidKeySize)
	}
	return DeriveKey(deviceSecret, nil, []byte(SealContext), SealKeySize)
}

// Seal encrypts plaintext with ChaCha20-Poly1305 under key, binding aad.
// The output is nonce (12 bytes) || ciphertext || tag (16 bytes).
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySize, err)
	}

	r := randReader
	if r == nil {
		r = rand.Reader
	}
	nonce := make([]byte, SealNonceSize, SealNonceSize+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal.
func Open(key, sealed, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySize, err)
	}
	if len(sealed) < SealNonceSize+aead.Overhead() {
		return nil, fmt.Errorf("%w: sealed value too short", ErrInvalidCiphertext)
	}

	plaintext, err := aead.Open(nil, sealed[:SealNonceSize], sealed[SealNonceSize:], aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
