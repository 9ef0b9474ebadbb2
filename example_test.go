package e2ee

import (
	"context"
	"fmt"
	"log"

	"github.com/quietline/e2ee/internal/message"
)

func Example() {
	ctx := context.Background()
	members := map[string][]string{"dm": {"alice", "bob"}}

	newEngine := func(self string, sender *fakeSender) *Engine {
		e, err := New(Dependencies{
			Directory: &fakeDirectory{self: self, members: members},
			Sender:    sender,
			Notifier:  &fakeNotifier{},
		})
		if err != nil {
			log.Fatal(err)
		}
		return e
	}
	aliceOut, bobOut := &fakeSender{}, &fakeSender{}
	alice, bob := newEngine("alice", aliceOut), newEngine("bob", bobOut)
	defer alice.Close()
	defer bob.Close()

	render := func(e *Engine, from string, id int64, content []byte) *Result {
		res, err := e.Decrypt(ctx, DecryptRequest{
			SenderID: from, MessageID: id, ConversationID: "dm",
			Kind: KindChat, Content: content, Finalized: true,
		})
		if err != nil {
			log.Fatal(err)
		}
		return res
	}

	// alice sends a key request, bob accepts it and answers
	if err := alice.InitiateKeyExchange(ctx, "dm"); err != nil {
		log.Fatal(err)
	}
	render(bob, "alice", 1, aliceOut.sent[0].content)
	if err := bob.AcceptHandshake(ctx, "dm", 1); err != nil {
		log.Fatal(err)
	}
	render(alice, "bob", 2, bobOut.sent[0].content)
	if err := alice.AcceptHandshake(ctx, "dm", 2); err != nil {
		log.Fatal(err)
	}

	fa, _ := alice.Fingerprint(ctx, "dm")
	fb, _ := bob.Fingerprint(ctx, "dm")
	fmt.Println("fingerprints match:", fa == fb)

	out, err := alice.EncryptOutgoing(ctx, Outgoing{
		Conversations: []string{"dm"},
		Kind:          KindChat,
		Content:       message.TextContent("hello bob"),
	})
	if err != nil {
		log.Fatal(err)
	}
	res := render(bob, "alice", 3, out.Content)
	text, _ := message.Text(res.Content)
	fmt.Println(res.Status, text)

	// Output:
	// fingerprints match: true
	// decrypted hello bob
}
