package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// NewIV returns a fresh random AES-CBC initialization vector.
func NewIV() ([]byte, error) {
	r := randReader
	if r == nil {
		r = rand.Reader
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(r, iv); err != nil {
		return nil, fmt.Errorf("read iv: %w", err)
	}
	return iv, nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidIVSize, len(iv), IVSize)
	}
	return aes.NewCipher(key)
}

// EncryptCBC encrypts plaintext with AES in CBC mode and PKCS#5 padding.
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptCBC reverses EncryptCBC.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", ErrInvalidCiphertext, len(ciphertext), aes.BlockSize)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	out, ok := unpad(plaintext, aes.BlockSize)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}

func unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
