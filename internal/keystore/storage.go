// Package keystore persists and caches one shared secret per peer.
//
// A Storage is the durable byte store; Store layers a bounded LRU cache and
// per-peer serialization on top of any Storage.
package keystore

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned by Storage.Read when no value exists for a peer.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidPeerID is returned when a peer id cannot be used as a storage key.
	ErrInvalidPeerID = errors.New("invalid peer id")

	// ErrWipeUnsupported is returned when the wrapped storage cannot be wiped.
	ErrWipeUnsupported = errors.New("storage does not support wipe")
)

// Storage is a peer-scoped durable byte store.
type Storage interface {
	Write(peerID string, value []byte) error
	// Read returns ErrNotFound when nothing is stored for peerID.
	Read(peerID string) ([]byte, error)
	Delete(peerID string) error
	Exists(peerID string) (bool, error)
}

// Wiper is implemented by storages that can remove every stored value at once.
type Wiper interface {
	Wipe() error
}

var peerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidatePeerID reports whether id is safe to use as a storage key.
func ValidatePeerID(id string) error {
	if id == "." || id == ".." || !peerIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidPeerID, id)
	}
	return nil
}
