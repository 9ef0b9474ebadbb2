package e2ee

import (
	"bytes"
	"context"

	"github.com/quietline/e2ee/internal/locale"
	"github.com/quietline/e2ee/internal/message"
)

// Cache lookup labels for metrics.
const (
	lookupHit  = "hit"
	lookupMiss = "miss"
)

// Decrypt renders a message body. Bodies without an envelope come back with
// StatusPlain and their content untouched. Handshake messages render as a
// notice and become pending until accepted. Encrypted bodies that cannot be
// opened render as a placeholder naming the message id.
//
// Successfully decrypted results of finalized messages are cached by message
// id and the same *Result is returned for later calls. Placeholders are not
// cached so a later call can retry once keys or storage recover. A message
// that is not finalized drops its cache entry and is always recomputed.
func (e *Engine) Decrypt(ctx context.Context, req DecryptRequest) (*Result, error) {
	if err := e.checkClosed(); err != nil {
		return nil, err
	}

	if !req.Finalized {
		e.cache.Invalidate(req.MessageID)
		return e.decrypt(ctx, req), nil
	}

	fresh := req.Kind.AlwaysFresh()
	if !fresh {
		if res, ok := e.cache.Get(req.MessageID); ok {
			e.metrics.CacheLookups.WithLabelValues(lookupHit).Inc()
			return res, nil
		}
		e.metrics.CacheLookups.WithLabelValues(lookupMiss).Inc()
	}

	res := e.decrypt(ctx, req)
	if fresh || !res.Encrypted || res.Kind.AlwaysFresh() {
		return res, nil
	}
	e.cache.MarkEncrypted(req.MessageID)
	if res.Status == StatusDecrypted {
		res = e.cache.PutIfAbsent(req.MessageID, res)
	}
	return res, nil
}

func (e *Engine) decrypt(ctx context.Context, req DecryptRequest) *Result {
	res := e.crypto.Decrypt(message.Input{
		SenderID:  req.SenderID,
		SelfID:    e.directory.SelfID(),
		MessageID: req.MessageID,
		Kind:      req.Kind,
		Content:   req.Content,
		Participants: func() []string {
			return e.keyedParticipants(ctx, req.ConversationID)
		},
	})
	e.metrics.Decrypt.WithLabelValues(res.Status.String()).Inc()

	if res.Status == StatusControl {
		e.renderControl(req, res)
	}
	return res
}

// renderControl replaces a handshake message with a notice. Incoming
// handshakes become pending; the local user's own render in brackets.
func (e *Engine) renderControl(req DecryptRequest, res *Result) {
	var id string
	switch {
	case res.Outgoing && res.Control.Type == HandshakeRequest:
		id = locale.OutgoingPublicKey
	case res.Outgoing:
		id = locale.OutgoingSecret
	case res.Control.Type == HandshakeRequest:
		id = locale.IncomingPublicKey
	default:
		id = locale.IncomingSecret
	}

	text := e.text.Text(id, nil)
	if res.Outgoing {
		text = "[" + text + "]"
	} else {
		e.pending.add(res.Control.Type, req.ConversationID, req.MessageID, res.Control.Payload)
	}
	res.Kind = KindChat
	res.Content = message.TextContent(text)
}

// DecryptMessage rewrites the kind and content of m, and of the message it
// quotes, with their decrypted form. The quoted message is treated as
// finalized exactly when m is.
func (e *Engine) DecryptMessage(ctx context.Context, m *Message) error {
	return e.decryptMessage(ctx, m, m != nil && m.Finalized)
}

func (e *Engine) decryptMessage(ctx context.Context, m *Message, finalized bool) error {
	if m == nil {
		return nil
	}
	res, err := e.Decrypt(ctx, DecryptRequest{
		SenderID:       m.SenderID,
		MessageID:      m.ID,
		ConversationID: m.ConversationID,
		Kind:           m.Kind,
		Content:        m.Content,
		Finalized:      finalized,
	})
	if err != nil {
		return err
	}
	if res.Status != StatusPlain {
		m.Kind = res.Kind
		m.Content = bytes.Clone(res.Content)
	}
	return e.decryptMessage(ctx, m.Quoted, finalized)
}

// IsEncrypted reports whether a finalized message was received encrypted. It
// only knows messages decrypted recently enough to still be tracked.
func (e *Engine) IsEncrypted(messageID int64) bool {
	return e.cache.Encrypted(messageID)
}

// ShowIndicator reports whether the host should mark a message as encrypted.
func (e *Engine) ShowIndicator(messageID int64) bool {
	return e.encryptedIndicator && e.IsEncrypted(messageID)
}
