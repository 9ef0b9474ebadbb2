// Package e2ee adds opt-in end-to-end encryption to the messages of a host
// messaging application whose wire format and transport it does not own.
//
// Pairing uses ML-KEM-1024: one side sends its public key in a key request,
// the other encapsulates a shared secret and sends the encapsulation back.
// Messages are encrypted with AES-CBC once per keyed recipient; each block is
// tagged with a salted hash of the recipient id, so non-recipients learn
// nothing about who can read a message. The encrypted envelope replaces the
// message body in the host's tagged-field encoding, and every unrelated field
// is left byte for byte as it was.
//
// Basic usage:
//
//	engine, err := e2ee.New(e2ee.Dependencies{
//	    Directory: directory,
//	    Sender:    sender,
//	    Notifier:  notifier,
//	}, e2ee.WithDataDir(dataDir), e2ee.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	// Start pairing in a one-to-one conversation
//	if err := engine.InitiateKeyExchange(ctx, conversationID); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Before sending
//	out, err := engine.EncryptOutgoing(ctx, e2ee.Outgoing{
//	    Conversations: []string{conversationID},
//	    Kind:          e2ee.KindChat,
//	    Content:       body,
//	})
//
//	// Before rendering
//	err = engine.DecryptMessage(ctx, msg)
package e2ee
