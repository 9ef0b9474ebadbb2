package e2ee

import (
	"errors"
	"fmt"

	"github.com/quietline/e2ee/internal/exchange"
	"github.com/quietline/e2ee/internal/failure"
	"github.com/quietline/e2ee/internal/keystore"
	"github.com/quietline/e2ee/internal/message"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrEngineClosed is returned when operations are attempted on a closed engine.
	ErrEngineClosed = errors.New("engine has been closed")

	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrNotDirectConversation is returned when a pairing operation targets a
	// conversation that does not have exactly one other participant.
	ErrNotDirectConversation = errors.New("not a direct conversation")

	// ErrOverwriteDeclined is returned when the user declines replacing an
	// existing shared key.
	ErrOverwriteDeclined = errors.New("shared key overwrite declined")

	// ErrNoPendingHandshake is returned when no handshake awaits action for a message.
	ErrNoPendingHandshake = errors.New("no pending handshake")

	// ErrUnencryptedDestination is returned when forced encryption refuses a
	// send that would reach a destination without end-to-end encryption.
	ErrUnencryptedDestination = errors.New("destination is not end-to-end encrypted")

	// ErrNoRecipients is returned when no recipient of a message has a shared key.
	ErrNoRecipients = message.ErrNoRecipients

	// ErrNoSharedKey is returned when no shared key is established with the peer.
	ErrNoSharedKey = exchange.ErrNoSharedKey

	// ErrInvalidPeerID is returned when a peer id cannot be used as a storage key.
	ErrInvalidPeerID = keystore.ErrInvalidPeerID
)

// Failure kinds. Every *Error matches exactly one of them with errors.Is.
var (
	// ErrKeyGeneration is returned when KEM key generation, encapsulation or
	// decapsulation fails. The handshake is aborted.
	ErrKeyGeneration = failure.ErrKeyGeneration

	// ErrStorage is returned when a durable key read or write fails.
	ErrStorage = failure.ErrStorage

	// ErrCipher is returned when symmetric encryption or decryption fails.
	ErrCipher = failure.ErrCipher

	// ErrProtocolMismatch is returned when an expected field is absent from a
	// message buffer.
	ErrProtocolMismatch = failure.ErrProtocolMismatch
)

// Error is a failure of one kind during an operation, optionally scoped to a peer.
type Error = failure.Error

// HandshakeError reports a failed pairing step in a conversation.
type HandshakeError struct {
	Step           HandshakeType
	ConversationID string
	Err            error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake %s in conversation %s failed: %v", e.Step, e.ConversationID, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandshakeError) Unwrap() error {
	return e.Err
}
