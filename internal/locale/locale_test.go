package locale

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

var allIDs = []string{
	IncomingPublicKey, IncomingSecret, OutgoingPublicKey, OutgoingSecret,
	AcceptPublicKeyButton, AcceptSecretButton,
	AcceptPublicKeySuccess, AcceptPublicKeyFailure, AcceptSecretSuccess, AcceptSecretFailure,
	EncryptionFailed, UnencryptedSendFailure, KeyExchangeFailed, NoDirectPeer, DecryptFailed,
	ConfirmationTitle, ConfirmationFirst, ConfirmationSecond, SharedKeyFingerprint, NoSharedKey,
}

func TestCatalogsComplete(t *testing.T) {
	for _, file := range []string{"catalogs/active.en.toml", "catalogs/active.de.toml"} {
		t.Run(file, func(t *testing.T) {
			data, err := catalogs.ReadFile(file)
			if err != nil {
				t.Fatal(err)
			}
			var entries map[string]map[string]string
			if err := toml.Unmarshal(data, &entries); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			for _, id := range allIDs {
				if entries[id]["other"] == "" {
					t.Errorf("missing %q", id)
				}
			}
		})
	}
}

func TestTranslator_Languages(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"", language.English},
		{"en", language.English},
		{"de", language.German},
		{"de-AT", language.German},
		{"not a locale!", language.English},
		{"ja", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			tr, err := New(tt.locale)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if base, _ := tr.Language().Base(); base.String() != tt.want.String() {
				t.Errorf("Language() = %v, want %v", tr.Language(), tt.want)
			}
		})
	}
}

func TestTranslator_Text(t *testing.T) {
	en, err := New("en")
	if err != nil {
		t.Fatal(err)
	}
	de, err := New("de")
	if err != nil {
		t.Fatal(err)
	}

	if got := en.Text(OutgoingPublicKey, nil); got != "Public key sent" {
		t.Errorf("en = %q", got)
	}
	if got := de.Text(OutgoingPublicKey, nil); got != "Öffentlicher Schlüssel gesendet" {
		t.Errorf("de = %q", got)
	}
	if got := en.Text("no_such_message", nil); got != "no_such_message" {
		t.Errorf("unknown id = %q, want the id", got)
	}
}

func TestTranslator_Templates(t *testing.T) {
	tr, _ := New("en")

	got := tr.DecryptFailedText(987654321)
	if want := "Failed to decrypt message, id=987654321. Check logs for more details."; got != want {
		t.Errorf("DecryptFailedText() = %q, want %q", got, want)
	}

	got = tr.Text(SharedKeyFingerprint, map[string]any{"Fingerprint": "abcde 12345"})
	if !strings.HasSuffix(got, "abcde 12345") {
		t.Errorf("fingerprint text = %q", got)
	}
}
