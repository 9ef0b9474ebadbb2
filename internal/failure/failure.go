// Package failure provides the shared error taxonomy for the e2ee engine.
package failure

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks. Each one names a failure kind.
var (
	// ErrKeyGeneration is returned when KEM key generation, encapsulation or
	// decapsulation fails.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrStorage is returned when a durable key read or write fails.
	ErrStorage = errors.New("key storage failed")

	// ErrCipher is returned when symmetric encryption or decryption fails.
	ErrCipher = errors.New("cipher failed")

	// ErrProtocolMismatch is returned when an expected field is absent or
	// malformed in a message buffer.
	ErrProtocolMismatch = errors.New("protocol mismatch")
)

// Error is a failure of one kind during an operation, optionally scoped to a peer.
type Error struct {
	Kind   error  // one of the sentinels above
	Op     string // operation name, e.g. "accept pairing response"
	PeerID string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.PeerID != "" {
		msg = fmt.Sprintf("%s (peer: %s)", msg, e.PeerID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// New returns an *Error of the given kind.
func New(kind error, op, peerID string, err error) *Error {
	return &Error{Kind: kind, Op: op, PeerID: peerID, Err: err}
}

// KeyGeneration returns an ErrKeyGeneration failure.
func KeyGeneration(op, peerID string, err error) *Error {
	return New(ErrKeyGeneration, op, peerID, err)
}

// Storage returns an ErrStorage failure.
func Storage(op, peerID string, err error) *Error {
	return New(ErrStorage, op, peerID, err)
}

// Cipher returns an ErrCipher failure.
func Cipher(op, peerID string, err error) *Error {
	return New(ErrCipher, op, peerID, err)
}

// KindOf returns the failure kind of err, or nil if err carries none.
func KindOf(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return nil
}
