package e2ee

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/quietline/e2ee/internal/keystore"
)

type fakeDirectory struct {
	self    string
	members map[string][]string
	err     error
}

func (d *fakeDirectory) SelfID() string {
	return d.self
}

func (d *fakeDirectory) Participants(_ context.Context, conversationID string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.members[conversationID], nil
}

func (d *fakeDirectory) DirectPeer(_ context.Context, conversationID string) (string, bool) {
	m := d.members[conversationID]
	if len(m) != 2 || !slices.Contains(m, d.self) {
		return "", false
	}
	for _, id := range m {
		if id != d.self {
			return id, true
		}
	}
	return "", false
}

type sentContent struct {
	conversationID string
	kind           Kind
	content        []byte
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentContent
	err  error
}

func (s *fakeSender) SendContent(_ context.Context, conversationID string, kind Kind, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentContent{conversationID, kind, content})
	return nil
}

func (s *fakeSender) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSender) last(t *testing.T) sentContent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return s.sent[len(s.sent)-1]
}

// fakeNotifier answers dialogs from answers in order, then with yes.
type fakeNotifier struct {
	mu      sync.Mutex
	toasts  []string
	answers []bool
	asked   []string
}

func (n *fakeNotifier) Toast(message string) {
	n.mu.Lock()
	n.toasts = append(n.toasts, message)
	n.mu.Unlock()
}

func (n *fakeNotifier) Confirm(_ context.Context, _, message string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.asked = append(n.asked, message)
	if len(n.answers) == 0 {
		return true, nil
	}
	ok := n.answers[0]
	n.answers = n.answers[1:]
	return ok, nil
}

func (n *fakeNotifier) lastToast() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.toasts) == 0 {
		return ""
	}
	return n.toasts[len(n.toasts)-1]
}

var testMembers = map[string][]string{
	"dm":       {"alice", "bob"},
	"carol-dm": {"alice", "carol"},
	"group":    {"alice", "bob", "carol"},
}

var (
	errSendFailed = errors.New("send failed")
	errReadFailed = errors.New("read failed")
)

// flakyStorage fails the next failures reads and then behaves like the
// wrapped storage.
type flakyStorage struct {
	keystore.Storage
	failures atomic.Int32
}

func (s *flakyStorage) Read(peerID string) ([]byte, error) {
	if s.failures.Add(-1) >= 0 {
		return nil, errReadFailed
	}
	s.failures.Store(0)
	return s.Storage.Read(peerID)
}

type testPeer struct {
	id       string
	engine   *Engine
	dir      *fakeDirectory
	sender   *fakeSender
	notifier *fakeNotifier
}

func newTestPeer(t *testing.T, id string, opts ...Option) *testPeer {
	t.Helper()
	p := &testPeer{
		id:       id,
		dir:      &fakeDirectory{self: id, members: testMembers},
		sender:   &fakeSender{},
		notifier: &fakeNotifier{},
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	e, err := New(Dependencies{
		Directory: p.dir,
		Sender:    p.sender,
		Notifier:  p.notifier,
	}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	p.engine = e
	return p
}

// deliver renders the last message sent by from on to.
func deliver(t *testing.T, from, to *testPeer, messageID int64) *Result {
	t.Helper()
	msg := from.sender.last(t)
	res, err := to.engine.Decrypt(context.Background(), DecryptRequest{
		SenderID:       from.id,
		MessageID:      messageID,
		ConversationID: msg.conversationID,
		Kind:           msg.kind,
		Content:        msg.content,
		Finalized:      true,
	})
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	return res
}

// pair runs a full key exchange between a and b in conversation.
func pair(t *testing.T, a, b *testPeer, conversation string, requestID, responseID int64) {
	t.Helper()
	ctx := context.Background()

	if err := a.engine.InitiateKeyExchange(ctx, conversation); err != nil {
		t.Fatalf("InitiateKeyExchange() error = %v", err)
	}
	if res := deliver(t, a, b, requestID); res.Status != StatusControl {
		t.Fatalf("request status = %v, want control", res.Status)
	}
	if err := b.engine.AcceptHandshake(ctx, conversation, requestID); err != nil {
		t.Fatalf("AcceptHandshake(request) error = %v", err)
	}
	if res := deliver(t, b, a, responseID); res.Status != StatusControl {
		t.Fatalf("response status = %v, want control", res.Status)
	}
	if err := a.engine.AcceptHandshake(ctx, conversation, responseID); err != nil {
		t.Fatalf("AcceptHandshake(response) error = %v", err)
	}
}
