// Package exchange runs the KEM pairing handshake between two peers.
//
// The initiator calls CreateKeyExchange and sends the public key; the responder
// calls AcceptPairingRequest and sends back the encapsulation; the initiator
// completes with AcceptPairingResponse. Both sides then hold the same shared
// secret in their key store.
package exchange

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quietline/e2ee/internal/crypto"
	"github.com/quietline/e2ee/internal/failure"
	"github.com/quietline/e2ee/internal/keystore"
)

// ErrNoSharedKey is returned when no shared secret is established with a peer.
var ErrNoSharedKey = errors.New("no shared key")

// State is the pairing state of one peer.
type State int

const (
	// StateNoKey means no exchange is in flight and no secret is stored.
	StateNoKey State = iota
	// StateRequested means a public key was sent and a response is awaited.
	StateRequested
	// StateEstablished means a shared secret is stored for the peer.
	StateEstablished
)

func (s State) String() string {
	switch s {
	case StateNoKey:
		return "no_key"
	case StateRequested:
		return "requested"
	case StateEstablished:
		return "established"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Coordinator drives the pairing state machine for every peer.
type Coordinator struct {
	keys    *keystore.Store
	pairing keystore.Storage
	logger  *zap.Logger

	mu     sync.RWMutex
	states map[string]State
}

// New returns a Coordinator storing secrets in keys and ephemeral private keys
// in pairing. The pairing area is wiped: exchanges in flight before a restart
// cannot be completed.
func New(keys *keystore.Store, pairing keystore.Storage, logger *zap.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, ok := pairing.(keystore.Wiper)
	if !ok {
		return nil, keystore.ErrWipeUnsupported
	}
	if err := w.Wipe(); err != nil {
		return nil, failure.Storage("wipe pairing area", "", err)
	}
	return &Coordinator{
		keys:    keys,
		pairing: pairing,
		logger:  logger.Named("exchange"),
		states:  make(map[string]State),
	}, nil
}

func (c *Coordinator) setState(peerID string, s State) {
	c.mu.Lock()
	c.states[peerID] = s
	c.mu.Unlock()
}

// State returns the pairing state of peerID.
func (c *Coordinator) State(peerID string) State {
	c.mu.RLock()
	s, ok := c.states[peerID]
	c.mu.RUnlock()
	if ok {
		return s
	}
	if c.keys.Exists(peerID) {
		return StateEstablished
	}
	return StateNoKey
}

// KeyExists reports whether accepting a pairing with peerID would overwrite
// an existing secret.
func (c *Coordinator) KeyExists(peerID string) bool {
	return c.keys.Exists(peerID)
}

// CreateKeyExchange starts a pairing with peerID and returns the public key
// to send to them.
func (c *Coordinator) CreateKeyExchange(peerID string) ([]byte, error) {
	const op = "create key exchange"

	kp, err := crypto.GenerateKeypair()
	if err == nil && !crypto.ValidateKeypair(kp) {
		err = crypto.ErrInvalidPublicKeySize
	}
	if err != nil {
		c.logger.Error("failed to generate keypair", zap.String("peer_id", peerID), zap.Error(err))
		return nil, failure.KeyGeneration(op, peerID, err)
	}
	if err := c.pairing.Write(peerID, kp.PrivateKey); err != nil {
		c.logger.Error("failed to write private key", zap.String("peer_id", peerID), zap.Error(err))
		return nil, failure.Storage(op, peerID, err)
	}

	c.setState(peerID, StateRequested)
	c.logger.Debug("key exchange created", zap.String("peer_id", peerID))
	return kp.PublicKey, nil
}

// AcceptPairingRequest answers a pairing request from peerID. It stores the
// new shared secret and returns the encapsulation to send back.
func (c *Coordinator) AcceptPairingRequest(peerID string, publicKey []byte) ([]byte, error) {
	const op = "accept pairing request"

	secret, encapsulation, err := crypto.Encapsulate(publicKey)
	if err != nil {
		c.logger.Error("failed to generate encapsulated secret", zap.String("peer_id", peerID), zap.Error(err))
		return nil, failure.KeyGeneration(op, peerID, err)
	}
	if err := c.keys.Put(peerID, secret); err != nil {
		c.logger.Error("failed to store shared secret key", zap.String("peer_id", peerID), zap.Error(err))
		return nil, err
	}

	c.setState(peerID, StateEstablished)
	c.logger.Info("pairing request accepted", zap.String("peer_id", peerID))
	return encapsulation, nil
}

// AcceptPairingResponse completes a pairing started with CreateKeyExchange.
// On failure the state is left unchanged and the exchange must be restarted.
func (c *Coordinator) AcceptPairingResponse(peerID string, encapsulation []byte) error {
	const op = "accept pairing response"

	privateKey, err := c.pairing.Read(peerID)
	if err != nil {
		c.logger.Error("failed to read private key", zap.String("peer_id", peerID), zap.Error(err))
		return failure.Storage(op, peerID, err)
	}

	secret, err := crypto.Decapsulate(privateKey, encapsulation)
	if err != nil {
		c.logger.Error("failed to extract shared secret", zap.String("peer_id", peerID), zap.Error(err))
		return failure.KeyGeneration(op, peerID, err)
	}
	if err := c.keys.Put(peerID, secret); err != nil {
		c.logger.Error("failed to store shared secret key", zap.String("peer_id", peerID), zap.Error(err))
		return err
	}

	if err := c.pairing.Delete(peerID); err != nil {
		c.logger.Warn("failed to delete private key", zap.String("peer_id", peerID), zap.Error(err))
	}
	c.setState(peerID, StateEstablished)
	c.logger.Info("pairing response accepted", zap.String("peer_id", peerID))
	return nil
}

// Fingerprint returns the human-comparable fingerprint of the secret shared
// with peerID.
func (c *Coordinator) Fingerprint(peerID string) (string, error) {
	secret, ok := c.keys.Get(peerID)
	if !ok {
		return "", fmt.Errorf("%w with %s", ErrNoSharedKey, peerID)
	}
	return crypto.Fingerprint(secret), nil
}
