package e2ee

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/quietline/e2ee/internal/locale"
	"github.com/quietline/e2ee/internal/message"
)

// Handshake step labels for metrics.
const (
	stepInitiated        = "initiated"
	stepAcceptedRequest  = "accepted_request"
	stepAcceptedResponse = "accepted_response"
	stepDeclined         = "declined"
	stepFailed           = "failed"
)

// directPeer returns the other member of a one-to-one conversation.
func (e *Engine) directPeer(ctx context.Context, conversationID string) (string, error) {
	peer, ok := e.directory.DirectPeer(ctx, conversationID)
	if !ok || peer == "" {
		e.notifier.Toast(e.text.Text(locale.NoDirectPeer, map[string]any{"ConversationID": conversationID}))
		return "", fmt.Errorf("%w: %s", ErrNotDirectConversation, conversationID)
	}
	return peer, nil
}

// InitiateKeyExchange starts pairing with the other member of a one-to-one
// conversation by sending a key request. When a shared key already exists the
// user must confirm replacing it twice.
func (e *Engine) InitiateKeyExchange(ctx context.Context, conversationID string) error {
	if err := e.checkClosed(); err != nil {
		return err
	}
	peer, err := e.directPeer(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := e.confirmOverwrite(ctx, peer); err != nil {
		return err
	}

	publicKey, err := e.coord.CreateKeyExchange(peer)
	if err != nil {
		return e.handshakeFailed(HandshakeRequest, conversationID, peer, locale.KeyExchangeFailed, err)
	}
	content := message.BuildControl(HandshakeRequest, publicKey)
	if err := e.sender.SendContent(ctx, conversationID, KindChat, content); err != nil {
		return e.handshakeFailed(HandshakeRequest, conversationID, peer, locale.KeyExchangeFailed, err)
	}

	e.metrics.Handshakes.WithLabelValues(stepInitiated).Inc()
	e.logger.Info("key exchange initiated",
		zap.String("conversation_id", conversationID),
		zap.String("peer_id", peer),
	)
	return nil
}

func (e *Engine) handshakeFailed(step HandshakeType, conversationID, peer, toast string, err error) error {
	e.metrics.Handshakes.WithLabelValues(stepFailed).Inc()
	e.logger.Warn("key exchange failed",
		zap.Stringer("step", step),
		zap.String("conversation_id", conversationID),
		zap.String("peer_id", peer),
		zap.Error(err),
	)
	e.notifier.Toast(e.text.Text(toast, map[string]any{"PeerID": peer}))
	return &HandshakeError{Step: step, ConversationID: conversationID, Err: err}
}

// confirmOverwrite asks the user twice before a shared key with peer is
// replaced. It returns nil when no key exists.
func (e *Engine) confirmOverwrite(ctx context.Context, peer string) error {
	if !e.coord.KeyExists(peer) {
		return nil
	}
	title := e.text.Text(locale.ConfirmationTitle, nil)
	for _, id := range []string{locale.ConfirmationFirst, locale.ConfirmationSecond} {
		ok, err := e.notifier.Confirm(ctx, title, e.text.Text(id, nil))
		if err != nil {
			return fmt.Errorf("confirm key overwrite: %w", err)
		}
		if !ok {
			e.metrics.Handshakes.WithLabelValues(stepDeclined).Inc()
			return ErrOverwriteDeclined
		}
	}
	return nil
}

// PendingHandshake returns the type of the handshake awaiting the user's
// decision for a rendered control message.
func (e *Engine) PendingHandshake(messageID int64) (HandshakeType, bool) {
	return e.pending.lookup(messageID)
}

// HandshakeAction returns the label of the button that accepts the handshake
// pending for a rendered control message.
func (e *Engine) HandshakeAction(messageID int64) (string, bool) {
	t, ok := e.pending.lookup(messageID)
	if !ok {
		return "", false
	}
	if t == HandshakeRequest {
		return e.text.Text(locale.AcceptPublicKeyButton, nil), true
	}
	return e.text.Text(locale.AcceptSecretButton, nil), true
}

// AcceptHandshake completes the pending handshake carried by a control
// message. For a key request the shared key is derived and a key response is
// sent back; for a key response the pairing started by InitiateKeyExchange is
// finished. On success encryption is enabled for the conversation. On failure
// the handshake stays pending.
func (e *Engine) AcceptHandshake(ctx context.Context, conversationID string, messageID int64) error {
	if err := e.checkClosed(); err != nil {
		return err
	}
	t, entry, ok := e.pending.take(conversationID, messageID)
	if !ok {
		return fmt.Errorf("%w: message %d", ErrNoPendingHandshake, messageID)
	}
	if err := e.acceptHandshake(ctx, t, entry); err != nil {
		e.pending.restore(t, entry)
		return err
	}
	return nil
}

func (e *Engine) acceptHandshake(ctx context.Context, t HandshakeType, entry pendingEntry) error {
	conversationID := entry.conversationID
	peer, err := e.directPeer(ctx, conversationID)
	if err != nil {
		return err
	}

	switch t {
	case HandshakeRequest:
		if err := e.confirmOverwrite(ctx, peer); err != nil {
			return err
		}
		encapsulation, err := e.coord.AcceptPairingRequest(peer, entry.payload)
		if err != nil {
			return e.handshakeFailed(t, conversationID, peer, locale.AcceptPublicKeyFailure, err)
		}
		content := message.BuildControl(HandshakeResponse, encapsulation)
		if err := e.sender.SendContent(ctx, conversationID, KindChat, content); err != nil {
			return e.handshakeFailed(t, conversationID, peer, locale.AcceptPublicKeyFailure, err)
		}
		e.metrics.Handshakes.WithLabelValues(stepAcceptedRequest).Inc()
		e.notifier.Toast(e.text.Text(locale.AcceptPublicKeySuccess, nil))

	case HandshakeResponse:
		if err := e.confirmOverwrite(ctx, peer); err != nil {
			return err
		}
		if err := e.coord.AcceptPairingResponse(peer, entry.payload); err != nil {
			return e.handshakeFailed(t, conversationID, peer, locale.AcceptSecretFailure, err)
		}
		e.metrics.Handshakes.WithLabelValues(stepAcceptedResponse).Inc()
		e.notifier.Toast(e.text.Text(locale.AcceptSecretSuccess, nil))

	default:
		return fmt.Errorf("%w: message %d", ErrNoPendingHandshake, entry.messageID)
	}

	// A new key may make earlier messages readable.
	e.cache.Purge()

	if err := e.SetEncryptionEnabled(conversationID, true); err != nil && !errors.Is(err, ErrEngineClosed) {
		e.logger.Warn("failed to enable encryption after pairing",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
	e.logger.Info("key exchange completed",
		zap.Stringer("step", t),
		zap.String("conversation_id", conversationID),
		zap.String("peer_id", peer),
	)
	return nil
}

// Fingerprint returns the fingerprint of the key shared with the other member
// of a one-to-one conversation, for manual comparison between devices.
func (e *Engine) Fingerprint(ctx context.Context, conversationID string) (string, error) {
	if err := e.checkClosed(); err != nil {
		return "", err
	}
	peer, err := e.directPeer(ctx, conversationID)
	if err != nil {
		return "", err
	}
	return e.coord.Fingerprint(peer)
}

// ShowFingerprint toasts the fingerprint of the key shared in a one-to-one
// conversation, or a notice that no key is shared.
func (e *Engine) ShowFingerprint(ctx context.Context, conversationID string) error {
	fp, err := e.Fingerprint(ctx, conversationID)
	switch {
	case errors.Is(err, ErrNoSharedKey):
		e.notifier.Toast(e.text.Text(locale.NoSharedKey, nil))
		return nil
	case err != nil:
		return err
	}
	e.notifier.Toast(e.text.Text(locale.SharedKeyFingerprint, map[string]any{"Fingerprint": fp}))
	return nil
}
