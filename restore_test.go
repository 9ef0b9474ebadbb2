package e2ee

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/quietline/e2ee/internal/message"
	"github.com/quietline/e2ee/internal/wire"
)

// createRequest builds a create-content request with kind and body.
func createRequest(kind Kind, body []byte) []byte {
	return wire.NewWriter().
		AddString(1, "request-id").
		From(tagRecordContainer, func(w *wire.Writer) {
			w.AddString(1, "destination")
			w.AddVarInt(tagRecordKind, uint64(kind))
			w.AddBuffer(tagRecordContent, body)
			w.AddVarInt(9, 77)
		}).
		AddVarInt(5, 3).
		Bytes()
}

func TestRestoreEphemeralKind(t *testing.T) {
	alice := newTestPeer(t, "alice")
	bob := newTestPeer(t, "bob")
	pair(t, alice, bob, "dm", 1, 2)

	out, err := alice.engine.EncryptOutgoing(context.Background(), Outgoing{
		Conversations: []string{"dm"},
		Kind:          KindSnap,
		Content:       snapBody(),
	})
	if err != nil {
		t.Fatalf("EncryptOutgoing() error = %v", err)
	}

	req := createRequest(out.Kind, out.Content)
	got := alice.engine.RestoreEphemeralKind(req)

	r := wire.NewReader(got)
	if kind, ok := r.VarInt(tagRecordContainer, tagRecordKind); !ok || Kind(kind) != KindSnap {
		t.Errorf("kind = %v, %v; want snap", kind, ok)
	}
	if body, _ := r.Bytes(tagRecordContainer, tagRecordContent); !bytes.Equal(body, out.Content) {
		t.Error("body changed")
	}

	orig := wire.NewReader(req)
	for _, tag := range []int{1, 5} {
		a, _ := orig.Get(tag)
		b, _ := r.Get(tag)
		if !bytes.Equal(a.Raw, b.Raw) {
			t.Errorf("field %d changed", tag)
		}
	}
	if v, _ := r.VarInt(tagRecordContainer, 9); v != 77 {
		t.Errorf("sibling field = %d, want 77", v)
	}
}

func TestRestoreEphemeralKind_Unchanged(t *testing.T) {
	p := newTestPeer(t, "alice")

	tests := []struct {
		name string
		req  []byte
	}{
		{"plain body", createRequest(KindExternalMedia, chatBody("hi"))},
		{"control body", createRequest(KindChat, message.BuildControl(HandshakeRequest, []byte("pk")))},
		{"not a request", []byte{0xff, 0xff}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.engine.RestoreEphemeralKind(tt.req); !bytes.Equal(got, tt.req) {
				t.Errorf("RestoreEphemeralKind() changed the request")
			}
		})
	}
}

func storedRecord(kind Kind, body []byte) []byte {
	return wire.NewWriter().
		AddVarInt(1, 123).
		From(tagRecordContainer, func(w *wire.Writer) {
			w.AddVarInt(tagRecordKind, uint64(kind))
			w.AddBuffer(tagRecordContent, body)
		}).
		AddString(6, "metadata").
		Bytes()
}

func TestDecryptStored(t *testing.T) {
	alice := newTestPeer(t, "alice")
	bob := newTestPeer(t, "bob")
	pair(t, alice, bob, "dm", 1, 2)
	out := encryptedFor(t, alice, "archived")

	record := storedRecord(out.Kind, out.Content)
	got, kind, err := bob.engine.DecryptStored(context.Background(), StoredMessage{
		ID: 50, ConversationID: "dm", SenderID: "alice", Kind: out.Kind, Record: record,
	})
	if err != nil {
		t.Fatalf("DecryptStored() error = %v", err)
	}
	if kind != KindChat {
		t.Errorf("kind = %v, want chat", kind)
	}

	r := wire.NewReader(got)
	body, _ := r.Bytes(tagRecordContainer, tagRecordContent)
	if text, _ := message.Text(body); text != "archived" {
		t.Errorf("stored text = %q, want archived", text)
	}
	orig := wire.NewReader(record)
	for _, tag := range []int{1, 6} {
		a, _ := orig.Get(tag)
		b, _ := r.Get(tag)
		if !bytes.Equal(a.Raw, b.Raw) {
			t.Errorf("field %d changed", tag)
		}
	}
}

func TestDecryptStored_Plain(t *testing.T) {
	p := newTestPeer(t, "bob")
	record := storedRecord(KindChat, chatBody("plain"))

	got, kind, err := p.engine.DecryptStored(context.Background(), StoredMessage{ID: 1, SenderID: "alice", Kind: KindChat, Record: record})
	if err != nil {
		t.Fatalf("DecryptStored() error = %v", err)
	}
	if !bytes.Equal(got, record) || kind != KindChat {
		t.Error("plain record was modified")
	}
}

func TestDecryptStored_NoContent(t *testing.T) {
	p := newTestPeer(t, "bob")
	record := wire.NewWriter().AddVarInt(1, 1).Bytes()

	got, _, err := p.engine.DecryptStored(context.Background(), StoredMessage{ID: 1, Record: record})
	if !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("DecryptStored() error = %v, want ErrProtocolMismatch", err)
	}
	if !bytes.Equal(got, record) {
		t.Error("record was modified")
	}
}
