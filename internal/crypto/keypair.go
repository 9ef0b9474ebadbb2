package crypto

import (
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
)

// randReader is the random source used for key generation, encapsulation and
// IVs. It defaults to nil (which uses crypto/rand) but can be overridden for
// testing.
var randReader io.Reader

// Keypair represents an ephemeral ML-KEM-1024 keypair created by a pairing
// initiator.
type Keypair struct {
	// PublicKey is the raw ML-KEM-1024 public key sent to the peer.
	PublicKey []byte
	// PrivateKey is the raw ML-KEM-1024 private key kept in the pairing area.
	PrivateKey []byte
}

// GenerateKeypair creates a new ML-KEM-1024 keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := mlkem1024.GenerateKeyPair(randReader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &Keypair{
		PublicKey:  pubBytes,
		PrivateKey: privBytes,
	}, nil
}

// Encapsulate generates a fresh shared secret for the holder of publicKey.
// It returns the secret and the encapsulation to send back to them.
func Encapsulate(publicKey []byte) (secret, encapsulation []byte, err error) {
	if len(publicKey) != KEMPublicKeySize {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicKeySize, len(publicKey), KEMPublicKeySize)
	}

	scheme := mlkem1024.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal public key: %w", err)
	}

	if randReader == nil {
		encapsulation, secret, err = scheme.Encapsulate(pk)
	} else {
		seed := make([]byte, scheme.EncapsulationSeedSize())
		if _, err := io.ReadFull(randReader, seed); err != nil {
			return nil, nil, fmt.Errorf("read encapsulation seed: %w", err)
		}
		encapsulation, secret, err = scheme.EncapsulateDeterministically(pk, seed)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulate: %w", err)
	}
	return secret, encapsulation, nil
}

// Decapsulate recovers the shared secret from an encapsulation produced for
// the public half of privateKey.
//
// ML-KEM uses implicit rejection: a well-sized but wrong encapsulation yields
// an unrelated secret rather than an error. Peers detect that by comparing
// fingerprints.
func Decapsulate(privateKey, encapsulation []byte) ([]byte, error) {
	if len(privateKey) != KEMPrivateKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPrivateKeySize, len(privateKey), KEMPrivateKeySize)
	}
	if len(encapsulation) != KEMCiphertextSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidCiphertextSize, len(encapsulation), KEMCiphertextSize)
	}

	scheme := mlkem1024.Scheme()
	sk, err := scheme.UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("unmarshal private key: %w", err)
	}

	secret, err := scheme.Decapsulate(sk, encapsulation)
	if err != nil {
		return nil, fmt.Errorf("decapsulate: %w", err)
	}
	return secret, nil
}

// ValidateKeypair reports whether keypair has the expected structure and sizes.
func ValidateKeypair(keypair *Keypair) bool {
	if keypair == nil {
		return false
	}
	return len(keypair.PublicKey) == KEMPublicKeySize && len(keypair.PrivateKey) == KEMPrivateKeySize
}
