package e2ee

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/quietline/e2ee/internal/locale"
)

// Encrypt outcome labels for metrics.
const (
	outcomeEncrypted   = "encrypted"
	outcomePassthrough = "passthrough"
	outcomeRefused     = "refused"
	outcomeFailed      = "failed"
)

// encryptableKinds are the content kinds that may be sent encrypted.
var encryptableKinds = []Kind{
	KindChat,
	KindSnap,
	KindExternalMedia,
	KindSticker,
	KindShare,
	KindNote,
}

// EncryptOutgoing prepares a message before it is sent.
//
// Only conversations with encryption enabled and at least one keyed member
// count as encrypted destinations. When there are none, or the kind cannot be
// encrypted, the message is returned unchanged. When only some destinations
// are encrypted, or the message also goes to other destinations, it is sent
// unencrypted, unless force encryption is set: then the send is refused with
// ErrUnencryptedDestination.
//
// Otherwise the body is encrypted once for every keyed member of every
// encrypted destination. Ephemeral snaps are sent as external media; the
// recipients restore the original kind.
func (e *Engine) EncryptOutgoing(ctx context.Context, out Outgoing) (*Outgoing, error) {
	if err := e.checkClosed(); err != nil {
		return nil, err
	}
	if !slices.Contains(encryptableKinds, out.Kind) {
		e.metrics.Encrypt.WithLabelValues(outcomePassthrough).Inc()
		return &out, nil
	}

	var recipients []string
	encrypted := 0
	for _, conversationID := range out.Conversations {
		if !e.rules.Enabled(conversationID) {
			continue
		}
		keyed := e.keyedParticipants(ctx, conversationID)
		if len(keyed) == 0 {
			continue
		}
		encrypted++
		for _, id := range keyed {
			if !slices.Contains(recipients, id) {
				recipients = append(recipients, id)
			}
		}
	}

	if encrypted == 0 {
		e.metrics.Encrypt.WithLabelValues(outcomePassthrough).Inc()
		return &out, nil
	}
	if encrypted != len(out.Conversations) || out.OtherDestinations {
		if !e.forceEncryption {
			e.metrics.Encrypt.WithLabelValues(outcomePassthrough).Inc()
			return &out, nil
		}
		e.metrics.Encrypt.WithLabelValues(outcomeRefused).Inc()
		e.notifier.Toast(e.text.Text(locale.UnencryptedSendFailure, nil))
		return nil, ErrUnencryptedDestination
	}

	content, blocks, err := e.crypto.Encrypt(recipients, out.Content)
	if err != nil {
		e.metrics.Encrypt.WithLabelValues(outcomeFailed).Inc()
		e.logger.Warn("failed to encrypt outgoing message",
			zap.Strings("conversations", out.Conversations),
			zap.Error(err),
		)
		e.notifier.Toast(e.text.Text(locale.EncryptionFailed, nil))
		return nil, err
	}

	kind := out.Kind
	if kind == KindSnap {
		kind = KindExternalMedia
	}
	e.metrics.Encrypt.WithLabelValues(outcomeEncrypted).Inc()
	e.metrics.Blocks.Add(float64(blocks))

	return &Outgoing{
		Conversations:     slices.Clone(out.Conversations),
		OtherDestinations: out.OtherDestinations,
		Kind:              kind,
		Content:           content,
	}, nil
}
