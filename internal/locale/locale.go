// Package locale renders the user-facing strings of the e2ee engine.
package locale

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message ids.
const (
	IncomingPublicKey      = "incoming_pk_message"
	IncomingSecret         = "incoming_secret_message"
	OutgoingPublicKey      = "outgoing_pk_message"
	OutgoingSecret         = "outgoing_secret_message"
	AcceptPublicKeyButton  = "accept_public_key_button"
	AcceptSecretButton     = "accept_secret_button"
	AcceptPublicKeySuccess = "accept_public_key_success_toast"
	AcceptPublicKeyFailure = "accept_public_key_failure_toast"
	AcceptSecretSuccess    = "accept_secret_key_success_toast"
	AcceptSecretFailure    = "accept_secret_key_failure_toast"
	EncryptionFailed       = "encryption_failed_toast"
	UnencryptedSendFailure = "unencrypted_conversation_send_failure_toast"
	KeyExchangeFailed      = "key_exchange_failed_toast"
	NoDirectPeer           = "no_direct_peer_toast"
	DecryptFailed          = "decrypt_failed_message"
	ConfirmationTitle      = "confirmation_title"
	ConfirmationFirst      = "confirmation_1"
	ConfirmationSecond     = "confirmation_2"
	SharedKeyFingerprint   = "shared_key_fingerprint"
	NoSharedKey            = "no_shared_key"
)

//go:embed catalogs/*.toml
var catalogs embed.FS

// DefaultLanguage is used when no catalog matches the requested locale.
var DefaultLanguage = language.English

// Translator renders message ids in one language.
type Translator struct {
	localizer *i18n.Localizer
	tag       language.Tag
}

// New returns a Translator for locale (a BCP 47 tag such as "de" or "en-US").
// An empty or unparseable locale selects DefaultLanguage.
func New(locale string) (*Translator, error) {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(catalogs, "catalogs/*.toml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(catalogs, f); err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", f, err)
		}
	}

	tag := DefaultLanguage
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	matcher := language.NewMatcher(bundle.LanguageTags())
	_, idx, _ := matcher.Match(tag)

	return &Translator{
		localizer: i18n.NewLocalizer(bundle, tag.String(), DefaultLanguage.String()),
		tag:       bundle.LanguageTags()[idx],
	}, nil
}

// Language returns the catalog language selected for this translator.
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Text renders id with optional template data. Unknown ids render as the id.
func (t *Translator) Text(id string, data map[string]any) string {
	s, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil || s == "" {
		return id
	}
	return s
}

// DecryptFailedText renders the placeholder for an unreadable message.
func (t *Translator) DecryptFailedText(messageID int64) string {
	return t.Text(DecryptFailed, map[string]any{"MessageID": messageID})
}
