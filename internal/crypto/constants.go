package crypto

import (
	"crypto/aes"
	"crypto/sha256"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KEMPublicKeySize is the size of an ML-KEM-1024 public key in bytes.
	KEMPublicKeySize = mlkem1024.PublicKeySize
	// KEMPrivateKeySize is the size of an ML-KEM-1024 private key in bytes.
	KEMPrivateKeySize = mlkem1024.PrivateKeySize
	// KEMCiphertextSize is the size of an ML-KEM-1024 encapsulation in bytes.
	KEMCiphertextSize = mlkem1024.CiphertextSize
	// KEMSharedKeySize is the size of the ML-KEM-1024 shared secret in bytes.
	// The shared secret is used directly as the AES-256 message key.
	KEMSharedKeySize = mlkem1024.SharedKeySize

	// IVSize is the AES-CBC initialization vector size in bytes.
	IVSize = aes.BlockSize
	// ParticipantHashSize is the size of a salted participant hash in bytes.
	ParticipantHashSize = sha256.Size

	// FingerprintGroupSize is the number of hex characters per fingerprint group.
	FingerprintGroupSize = 5

	// SealKeySize is the size of the at-rest sealing key in bytes.
	SealKeySize = chacha20poly1305.KeySize
	// SealNonceSize is the size of the at-rest sealing nonce in bytes.
	SealNonceSize = chacha20poly1305.NonceSize
)

// SealContext is the HKDF info prefix used to derive at-rest sealing keys.
const SealContext = "e2ee:keystore:v1"
