package message

import (
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quietline/e2ee/internal/crypto"
	"github.com/quietline/e2ee/internal/failure"
	"github.com/quietline/e2ee/internal/wire"
)

// Block is the ciphertext of one message body for one recipient.
type Block struct {
	ParticipantHash []byte
	IV              []byte
	Ciphertext      []byte
}

func (b Block) write(w *wire.Writer) {
	w.AddBuffer(tagBlockHash, b.ParticipantHash)
	w.AddBuffer(tagBlockIV, b.IV)
	w.AddBuffer(tagBlockCiphertext, b.Ciphertext)
}

type recipient struct {
	peerID string
	key    []byte
}

// Encrypt returns a body carrying content encrypted for every recipient that
// has a shared key, and the number of blocks written. Recipients without a key
// are skipped; if none has one, Encrypt returns ErrNoRecipients.
func (e *Engine) Encrypt(recipients []string, content []byte) ([]byte, int, error) {
	keyed := make([]recipient, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))
	for _, id := range recipients {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		key, ok := e.keys.Get(id)
		if !ok {
			continue
		}
		keyed = append(keyed, recipient{peerID: id, key: key})
	}
	if len(keyed) == 0 {
		return nil, 0, ErrNoRecipients
	}

	blocks := make([]Block, len(keyed))
	var g errgroup.Group
	for i, r := range keyed {
		g.Go(func() error {
			b, err := encryptBlock(r, content)
			if err != nil {
				return err
			}
			blocks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	snap := false
	if k, ok := KindFromContainer(content); ok && k == KindSnap {
		snap = true
	}

	out := wire.NewWriter().From(tagBody, func(w *wire.Writer) {
		w.From(tagEnvelope, func(w *wire.Writer) {
			w.AddVarInt(tagEnvType, uint64(TypeEncrypted))
			for _, b := range blocks {
				w.From(tagEnvPayload, b.write)
			}
			if snap {
				w.AddVarInt(tagEnvSnap, 1)
			}
		})
	}).Bytes()

	e.logger.Debug("encrypted message", zap.Int("blocks", len(blocks)), zap.Int("size", len(out)))
	return out, len(blocks), nil
}

func encryptBlock(r recipient, content []byte) (Block, error) {
	const op = "encrypt message"

	iv, err := crypto.NewIV()
	if err != nil {
		return Block{}, failure.Cipher(op, r.peerID, err)
	}
	ct, err := crypto.EncryptCBC(r.key, iv, content)
	if err != nil {
		return Block{}, failure.Cipher(op, r.peerID, err)
	}
	return Block{
		ParticipantHash: crypto.ParticipantHash(r.peerID, iv),
		IV:              iv,
		Ciphertext:      ct,
	}, nil
}
