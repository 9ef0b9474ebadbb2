package message

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quietline/e2ee/internal/crypto"
	"github.com/quietline/e2ee/internal/wire"
)

// Status is the outcome of decrypting one message body.
type Status int

const (
	// StatusPlain means the body carries no envelope and was left as is.
	StatusPlain Status = iota
	// StatusDecrypted means a block for the reader was found and decrypted.
	StatusDecrypted
	// StatusUndecryptable means no block could be opened by the reader.
	StatusUndecryptable
	// StatusCipherFailure means a matching block failed to decrypt.
	StatusCipherFailure
	// StatusControl means the body is a handshake envelope.
	StatusControl
)

func (s Status) String() string {
	switch s {
	case StatusPlain:
		return "plain"
	case StatusDecrypted:
		return "decrypted"
	case StatusUndecryptable:
		return "undecryptable"
	case StatusCipherFailure:
		return "cipher_failure"
	case StatusControl:
		return "control"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Input describes a message body to decrypt.
type Input struct {
	SenderID  string
	SelfID    string
	MessageID int64
	Kind      Kind
	Content   []byte
	// Participants returns the keyed participants of the conversation. It is
	// only called when the reader is the sender, and at most once.
	Participants func() []string
}

// Result is the rendered form of a message body.
type Result struct {
	Kind    Kind
	Content []byte
	Status  Status
	// Encrypted is set for every body that carried encrypted blocks, whether
	// or not they could be opened.
	Encrypted bool
	// Control is set when Status is StatusControl.
	Control *Control
	// Outgoing is set for control messages sent by the reader.
	Outgoing bool
}

// Decrypt renders in. It never fails: bodies that are not envelopes come back
// as StatusPlain, and blocks that cannot be opened are replaced by a
// placeholder.
func (e *Engine) Decrypt(in Input) *Result {
	r := wire.NewReader(in.Content)
	res := &Result{
		Kind:    fixKind(in.Kind, r),
		Content: in.Content,
		Status:  StatusPlain,
	}

	env, ok := r.FollowPath(EnvelopePath...)
	if !ok {
		return res
	}
	t, ok := env.VarInt(tagEnvType)
	if !ok {
		return res
	}

	switch Type(t) {
	case TypeEncrypted:
		e.decryptBlocks(in, env, res)
	case TypeKeyRequest, TypeKeyResponse:
		c, ok := parseControl(env)
		if !ok {
			return res
		}
		res.Status = StatusControl
		res.Control = &c
		res.Outgoing = in.SenderID == in.SelfID
	}
	return res
}

func (e *Engine) decryptBlocks(in Input, env *wire.Reader, res *Result) {
	res.Encrypted = true
	isMe := in.SenderID == in.SelfID
	participants := sync.OnceValue(func() []string {
		if in.Participants == nil {
			return nil
		}
		return in.Participants()
	})

	for block := range env.EachMessage(tagEnvPayload) {
		hash, ok1 := block.Bytes(tagBlockHash)
		iv, ok2 := block.Bytes(tagBlockIV)
		ct, ok3 := block.Bytes(tagBlockCiphertext)
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		var peerID string
		if isMe {
			// our own message: find which participant this block was for
			for _, p := range participants() {
				if crypto.MatchParticipant(hash, p, iv) {
					peerID = p
					break
				}
			}
			if peerID == "" {
				continue
			}
		} else {
			if !crypto.MatchParticipant(hash, in.SelfID, iv) {
				continue
			}
			peerID = in.SenderID
		}

		key, ok := e.keys.Get(peerID)
		if !ok {
			e.logger.Debug("no shared key for matching block",
				zap.String("peer_id", peerID),
				zap.Int64("message_id", in.MessageID),
			)
			continue
		}

		plaintext, err := crypto.DecryptCBC(key, iv, ct)
		if err != nil {
			e.logger.Warn("failed to decrypt message",
				zap.String("peer_id", peerID),
				zap.Int64("message_id", in.MessageID),
				zap.Error(err),
			)
			e.setPlaceholder(in.MessageID, res, StatusCipherFailure)
			return
		}

		res.Status = StatusDecrypted
		res.Content = plaintext
		res.Kind = fixKind(res.Kind, wire.NewReader(plaintext))
		return
	}

	e.setPlaceholder(in.MessageID, res, StatusUndecryptable)
}

func (e *Engine) setPlaceholder(messageID int64, res *Result, s Status) {
	res.Status = s
	res.Kind = KindChat
	res.Content = TextContent(e.placeholder(messageID))
}
