package keystore

import (
	"bytes"
	"sync"
)

// MemoryStorage is an in-process Storage. Values do not survive a restart.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (s *MemoryStorage) Write(peerID string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[peerID] = bytes.Clone(value)
	return nil
}

func (s *MemoryStorage) Read(peerID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[peerID]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (s *MemoryStorage) Delete(peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, peerID)
	return nil
}

func (s *MemoryStorage) Exists(peerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[peerID]
	return ok, nil
}

func (s *MemoryStorage) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	return nil
}

// Len returns the number of stored values.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
