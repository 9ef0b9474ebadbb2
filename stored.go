package e2ee

import (
	"context"
	"errors"

	"github.com/quietline/e2ee/internal/wire"
)

var errNoStoredContent = errors.New("record has no content at 4/4")

// DecryptStored decrypts a message record read from the host's message
// database. It returns the record with only its body replaced, and the kind
// of the decrypted body. Plain records are returned unchanged.
func (e *Engine) DecryptStored(ctx context.Context, sm StoredMessage) ([]byte, Kind, error) {
	if err := e.checkClosed(); err != nil {
		return nil, sm.Kind, err
	}
	content, ok := wire.NewReader(sm.Record).Bytes(tagRecordContainer, tagRecordContent)
	if !ok {
		return sm.Record, sm.Kind, &Error{
			Kind: ErrProtocolMismatch,
			Op:   "decrypt stored message",
			Err:  errNoStoredContent,
		}
	}

	res, err := e.Decrypt(ctx, DecryptRequest{
		SenderID:       sm.SenderID,
		MessageID:      sm.ID,
		ConversationID: sm.ConversationID,
		Kind:           sm.Kind,
		Content:        content,
		Finalized:      true,
	})
	if err != nil {
		return nil, sm.Kind, err
	}
	if res.Status == StatusPlain {
		return sm.Record, sm.Kind, nil
	}

	ed := wire.NewEditor(sm.Record)
	err = ed.Edit([]int{tagRecordContainer}, func(p *wire.Patch) {
		p.Remove(tagRecordContent)
		p.AddBuffer(tagRecordContent, res.Content)
	})
	if err != nil {
		return sm.Record, sm.Kind, err
	}
	return ed.Bytes(), res.Kind, nil
}
