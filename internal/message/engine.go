// Package message encrypts message bodies for many recipients and decrypts
// them again, embedding the ciphertext in the host's body format.
//
// An encrypted body replaces the original with an envelope at path 2/1:
//
//	{2: {1: {1: 3, 2: block, 2: block, ..., 5: 1?}}}
//
// where every block is {1: participant hash, 2: iv, 3: ciphertext}. The
// participant hash is SHA-256(peer id ‖ iv), so a block names its recipient
// only to someone who already knows the recipient's id.
package message

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoRecipients is returned by Encrypt when no recipient has a shared key.
var ErrNoRecipients = errors.New("no recipient with a shared key")

// KeySource looks up the shared secret for a peer.
type KeySource interface {
	Get(peerID string) ([]byte, bool)
}

// Engine encrypts and decrypts message bodies with keys from a KeySource.
type Engine struct {
	keys        KeySource
	logger      *zap.Logger
	placeholder func(messageID int64) string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPlaceholder sets the text shown in place of a message that cannot be
// decrypted.
func WithPlaceholder(fn func(messageID int64) string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.placeholder = fn
		}
	}
}

func defaultPlaceholder(messageID int64) string {
	return fmt.Sprintf("Failed to decrypt message, id=%d. Check logs for more details.", messageID)
}

// NewEngine returns an Engine reading shared secrets from keys.
func NewEngine(keys KeySource, opts ...EngineOption) *Engine {
	e := &Engine{
		keys:        keys,
		logger:      zap.NewNop(),
		placeholder: defaultPlaceholder,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("message")
	return e
}
