package e2ee

import (
	"sync"
	"sync/atomic"
)

// listener is a registered state change callback.
type listener struct {
	id       uint64
	callback func(conversationID string, enabled bool)
	active   atomic.Bool
}

// listenerManager handles state listeners with safe lifecycle management.
// Callbacks are never invoked after their unsubscribe function returns.
type listenerManager struct {
	mu     sync.RWMutex
	subs   map[uint64]*listener
	nextID atomic.Uint64
}

func newListenerManager() *listenerManager {
	return &listenerManager{
		subs: make(map[uint64]*listener),
	}
}

// subscribe registers callback and returns the function that removes it.
func (m *listenerManager) subscribe(callback func(conversationID string, enabled bool)) func() {
	l := &listener{
		id:       m.nextID.Add(1),
		callback: callback,
	}
	l.active.Store(true)

	m.mu.Lock()
	m.subs[l.id] = l
	m.mu.Unlock()

	return func() {
		m.unsubscribe(l.id)
	}
}

// unsubscribe removes a listener. Safe to call multiple times.
func (m *listenerManager) unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.subs[id]; ok {
		l.active.Store(false)
		delete(m.subs, id)
	}
}

// notify calls every registered listener synchronously, outside the lock.
func (m *listenerManager) notify(conversationID string, enabled bool) {
	m.mu.RLock()
	if len(m.subs) == 0 {
		m.mu.RUnlock()
		return
	}
	subs := make([]*listener, 0, len(m.subs))
	for _, l := range m.subs {
		subs = append(subs, l)
	}
	m.mu.RUnlock()

	for _, l := range subs {
		if l.active.Load() {
			l.callback(conversationID, enabled)
		}
	}
}

// clear removes all listeners. Called during Engine.Close().
func (m *listenerManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.subs {
		l.active.Store(false)
	}
	m.subs = make(map[uint64]*listener)
}
