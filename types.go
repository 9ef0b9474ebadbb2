package e2ee

import "github.com/quietline/e2ee/internal/message"

// Kind is the host application's content type id.
type Kind = message.Kind

// Content kinds.
const (
	KindUnknown       = message.KindUnknown
	KindSnap          = message.KindSnap
	KindChat          = message.KindChat
	KindExternalMedia = message.KindExternalMedia
	KindSticker       = message.KindSticker
	KindShare         = message.KindShare
	KindNote          = message.KindNote
	KindStatus        = message.KindStatus
)

// Status is the outcome of decrypting one message body.
type Status = message.Status

// Decryption statuses.
const (
	StatusPlain         = message.StatusPlain
	StatusDecrypted     = message.StatusDecrypted
	StatusUndecryptable = message.StatusUndecryptable
	StatusCipherFailure = message.StatusCipherFailure
	StatusControl       = message.StatusControl
)

// Result is the rendered form of a message body. Results returned for
// finalized messages may be shared and must not be modified.
type Result = message.Result

// HandshakeType identifies a pairing step carried by a control message.
type HandshakeType = message.Type

// Handshake types.
const (
	HandshakeRequest  = message.TypeKeyRequest
	HandshakeResponse = message.TypeKeyResponse
)

// Message is an in-memory message about to be rendered by the host.
type Message struct {
	ID             int64
	ConversationID string
	SenderID       string
	Kind           Kind
	Content        []byte
	// Finalized is set once the host has committed the message. Results for
	// messages that are not finalized are never cached.
	Finalized bool
	// Quoted is the message this one replies to, if any.
	Quoted *Message
}

// DecryptRequest describes one message body to decrypt.
type DecryptRequest struct {
	SenderID       string
	MessageID      int64
	ConversationID string
	Kind           Kind
	Content        []byte
	Finalized      bool
}

// Outgoing is a message about to be sent.
type Outgoing struct {
	Conversations []string
	// OtherDestinations is set when the message also goes to destinations
	// that are not conversations, such as stories.
	OtherDestinations bool
	Kind              Kind
	Content           []byte
}

// StoredMessage is a message record read from the host's message database.
// The message body lives at field 4/4 of Record.
type StoredMessage struct {
	ID             int64
	ConversationID string
	SenderID       string
	Kind           Kind
	Record         []byte
}

// TextContent returns a chat message body holding text.
func TextContent(text string) []byte {
	return message.TextContent(text)
}

// Text returns the text of a chat message body.
func Text(content []byte) (string, bool) {
	return message.Text(content)
}
