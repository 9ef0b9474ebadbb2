package keystore

import (
	"fmt"

	"github.com/quietline/e2ee/internal/crypto"
)

// SealedStorage encrypts values at rest before handing them to another
// Storage. The peer id is bound to each sealed value, so a value copied to
// another peer's slot fails to open.
type SealedStorage struct {
	inner Storage
	key   []byte
}

// NewSealedStorage wraps inner, sealing values under a key derived from deviceSecret.
func NewSealedStorage(inner Storage, deviceSecret []byte) (*SealedStorage, error) {
	key, err := crypto.SealKey(deviceSecret)
	if err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	return &SealedStorage{inner: inner, key: key}, nil
}

func (s *SealedStorage) Write(peerID string, value []byte) error {
	sealed, err := crypto.Seal(s.key, value, []byte(peerID))
	if err != nil {
		return fmt.Errorf("seal key: %w", err)
	}
	return s.inner.Write(peerID, sealed)
}

func (s *SealedStorage) Read(peerID string) ([]byte, error) {
	sealed, err := s.inner.Read(peerID)
	if err != nil {
		return nil, err
	}
	value, err := crypto.Open(s.key, sealed, []byte(peerID))
	if err != nil {
		return nil, fmt.Errorf("open sealed key: %w", err)
	}
	return value, nil
}

func (s *SealedStorage) Delete(peerID string) error {
	return s.inner.Delete(peerID)
}

func (s *SealedStorage) Exists(peerID string) (bool, error) {
	return s.inner.Exists(peerID)
}

// Wipe wipes the wrapped storage if it supports it.
func (s *SealedStorage) Wipe() error {
	w, ok := s.inner.(Wiper)
	if !ok {
		return ErrWipeUnsupported
	}
	return w.Wipe()
}
