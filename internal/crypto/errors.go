package crypto

import "errors"

var (
	// ErrInvalidPublicKeySize is returned when a KEM public key has the wrong size.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidPrivateKeySize is returned when a KEM private key has the wrong size.
	ErrInvalidPrivateKeySize = errors.New("invalid private key size")

	// ErrInvalidCiphertextSize is returned when a KEM encapsulation has the wrong size.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrInvalidKeySize is returned when a symmetric key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidIVSize is returned when the IV size is invalid.
	ErrInvalidIVSize = errors.New("invalid iv size")

	// ErrInvalidCiphertext is returned when ciphertext cannot be a valid output
	// of the cipher (for example a length that is not a block multiple).
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrDecryptionFailed is returned when decryption fails: wrong key, bad
	// padding or a failed authentication tag.
	ErrDecryptionFailed = errors.New("decryption failed")
)
