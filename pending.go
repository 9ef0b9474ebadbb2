package e2ee

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// consumedCapacity bounds how many handled handshake messages are remembered.
const consumedCapacity = 1024

type pendingEntry struct {
	conversationID string
	messageID      int64
	payload        []byte
}

// pendingHandshakes holds handshake messages awaiting a user decision, keyed
// by message id. Only the newest message of each type is kept per
// conversation.
type pendingHandshakes struct {
	mu      sync.Mutex
	entries map[HandshakeType]map[int64]pendingEntry
	// consumed remembers handled messages so re-rendering them does not bring
	// them back.
	consumed *lru.Cache[int64, struct{}]
}

func newPendingHandshakes() *pendingHandshakes {
	consumed, _ := lru.New[int64, struct{}](consumedCapacity)
	return &pendingHandshakes{
		entries: map[HandshakeType]map[int64]pendingEntry{
			HandshakeRequest:  {},
			HandshakeResponse: {},
		},
		consumed: consumed,
	}
}

// add records a handshake message. It reports false when the message was
// already handled or a newer message of the same type is pending for the
// conversation.
func (p *pendingHandshakes) add(t HandshakeType, conversationID string, messageID int64, payload []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	byID, ok := p.entries[t]
	if !ok || p.consumed.Contains(messageID) {
		return false
	}
	for id, entry := range byID {
		if entry.conversationID != conversationID {
			continue
		}
		if id > messageID {
			return false
		}
		if id < messageID {
			delete(byID, id)
		}
	}
	byID[messageID] = pendingEntry{
		conversationID: conversationID,
		messageID:      messageID,
		payload:        payload,
	}
	return true
}

// lookup returns the type of the handshake pending for messageID.
func (p *pendingHandshakes) lookup(messageID int64) (HandshakeType, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for t, byID := range p.entries {
		if _, ok := byID[messageID]; ok {
			return t, true
		}
	}
	return 0, false
}

// take removes and returns the handshake pending for messageID in
// conversationID, marking it consumed.
func (p *pendingHandshakes) take(conversationID string, messageID int64) (HandshakeType, pendingEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for t, byID := range p.entries {
		entry, ok := byID[messageID]
		if !ok || entry.conversationID != conversationID {
			continue
		}
		delete(byID, messageID)
		p.consumed.Add(messageID, struct{}{})
		return t, entry, true
	}
	return 0, pendingEntry{}, false
}

// restore puts back an entry returned by take.
func (p *pendingHandshakes) restore(t HandshakeType, entry pendingEntry) {
	p.mu.Lock()
	p.consumed.Remove(entry.messageID)
	p.mu.Unlock()

	p.add(t, entry.conversationID, entry.messageID, entry.payload)
}

func (p *pendingHandshakes) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, byID := range p.entries {
		n += len(byID)
	}
	return n
}
