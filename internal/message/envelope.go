package message

import (
	"fmt"

	"github.com/quietline/e2ee/internal/wire"
)

// Type identifies what an envelope carries.
type Type uint64

const (
	// TypeKeyRequest carries an initiator's KEM public key.
	TypeKeyRequest Type = 1
	// TypeKeyResponse carries a responder's KEM encapsulation.
	TypeKeyResponse Type = 2
	// TypeEncrypted carries one encrypted block per recipient.
	TypeEncrypted Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeKeyRequest:
		return "key_request"
	case TypeKeyResponse:
		return "key_response"
	case TypeEncrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("Type(%d)", uint64(t))
	}
}

// Envelope field layout, relative to the message body.
const (
	tagBody     = 2
	tagEnvelope = 1

	tagEnvType    = 1
	tagEnvPayload = 2
	tagEnvSnap    = 5

	tagKey = 2

	tagBlockHash       = 1
	tagBlockIV         = 2
	tagBlockCiphertext = 3

	tagText = 1
)

// EnvelopePath is the path of the envelope inside a message body.
var EnvelopePath = []int{tagBody, tagEnvelope}

// Control is a parsed handshake envelope.
type Control struct {
	Type Type
	// Payload is the public key (requests) or encapsulation (responses).
	Payload []byte
}

// BuildControl returns a chat body carrying a handshake envelope.
func BuildControl(t Type, payload []byte) []byte {
	return wire.NewWriter().From(tagBody, func(w *wire.Writer) {
		w.From(tagEnvelope, func(w *wire.Writer) {
			w.AddVarInt(tagEnvType, uint64(t))
			w.From(tagEnvPayload, func(w *wire.Writer) {
				w.AddBuffer(tagKey, payload)
			})
		})
	}).Bytes()
}

// ParseControl extracts a handshake envelope from content.
func ParseControl(content []byte) (Control, bool) {
	env, ok := wire.NewReader(content).FollowPath(EnvelopePath...)
	if !ok {
		return Control{}, false
	}
	return parseControl(env)
}

func parseControl(env *wire.Reader) (Control, bool) {
	t, ok := env.VarInt(tagEnvType)
	if !ok || (Type(t) != TypeKeyRequest && Type(t) != TypeKeyResponse) {
		return Control{}, false
	}
	payload, ok := env.Bytes(tagEnvPayload, tagKey)
	if !ok {
		return Control{}, false
	}
	return Control{Type: Type(t), Payload: payload}, true
}

// TextContent returns a chat body holding text.
func TextContent(text string) []byte {
	return wire.NewWriter().From(tagBody, func(w *wire.Writer) {
		w.AddString(tagText, text)
	}).Bytes()
}

// Text returns the text of a chat body built by TextContent.
func Text(content []byte) (string, bool) {
	return wire.NewReader(content).String(tagBody, tagText)
}

// IsEnvelope reports whether content carries an envelope of any type.
func IsEnvelope(content []byte) bool {
	_, ok := wire.NewReader(content).VarInt(tagBody, tagEnvelope, tagEnvType)
	return ok
}

// HasSnapMarker reports whether an encrypted envelope flags its original kind
// as ephemeral media.
func HasSnapMarker(content []byte) bool {
	v, ok := wire.NewReader(content).VarInt(tagBody, tagEnvelope, tagEnvSnap)
	return ok && v == 1
}
