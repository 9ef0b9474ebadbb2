package e2ee

import "context"

// Directory answers questions about conversations and their members.
type Directory interface {
	// SelfID returns the local user's id.
	SelfID() string
	// Participants returns every member of a conversation, the local user
	// included.
	Participants(ctx context.Context, conversationID string) ([]string, error)
	// DirectPeer returns the other member of a one-to-one conversation.
	DirectPeer(ctx context.Context, conversationID string) (string, bool)
}

// Sender delivers message bodies built by the engine.
type Sender interface {
	SendContent(ctx context.Context, conversationID string, kind Kind, content []byte) error
}

// Notifier shows toasts and confirmation dialogs.
type Notifier interface {
	Toast(message string)
	// Confirm asks a yes/no question and reports the answer.
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// Rules decides which conversations use end-to-end encryption.
// config.Rules implements it.
type Rules interface {
	Enabled(conversationID string) bool
	SetEnabled(conversationID string, enabled bool) error
}

// Dependencies are the host collaborators of an Engine. Directory and Sender
// are required. A nil Notifier discards toasts and declines every dialog. A
// nil Rules uses the rules of WithConfig, or empty whitelist rules.
type Dependencies struct {
	Directory Directory
	Sender    Sender
	Notifier  Notifier
	Rules     Rules
}

type nopNotifier struct{}

func (nopNotifier) Toast(string) {}

func (nopNotifier) Confirm(context.Context, string, string) (bool, error) {
	return false, nil
}
