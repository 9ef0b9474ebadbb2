package keystore

import (
	"bytes"
	"errors"
	"hash/fnv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/quietline/e2ee/internal/failure"
)

const (
	// DefaultCapacity is the default number of cached shared secrets.
	DefaultCapacity = 100

	stripeCount = 64
)

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	capacity int
	logger   *zap.Logger
}

// WithCapacity sets the number of shared secrets kept in memory.
func WithCapacity(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the logger used to report storage failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Store holds one shared secret per peer id, durable in a Storage and cached
// in a bounded LRU. Writes and storage reads for one peer are serialized; two
// concurrent writers for the same peer resolve as last write wins.
type Store struct {
	storage Storage
	cache   *lru.Cache[string, []byte]
	stripes [stripeCount]sync.Mutex
	loads   singleflight.Group
	logger  *zap.Logger
}

// NewStore returns a Store backed by storage.
func NewStore(storage Storage, opts ...Option) (*Store, error) {
	cfg := &storeConfig{
		capacity: DefaultCapacity,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	cache, err := lru.New[string, []byte](cfg.capacity)
	if err != nil {
		return nil, err
	}
	return &Store{
		storage: storage,
		cache:   cache,
		logger:  cfg.logger.Named("keystore"),
	}, nil
}

func (s *Store) stripe(peerID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(peerID))
	return &s.stripes[h.Sum32()%stripeCount]
}

// Put durably stores key for peerID and updates the cache. The cache is only
// updated once the durable write succeeded.
func (s *Store) Put(peerID string, key []byte) error {
	mu := s.stripe(peerID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.storage.Write(peerID, key); err != nil {
		s.cache.Remove(peerID)
		return failure.Storage("write shared key", peerID, err)
	}
	s.cache.Add(peerID, bytes.Clone(key))
	return nil
}

// Get returns the shared secret for peerID. Storage failures are logged and
// reported as a missing key.
func (s *Store) Get(peerID string) ([]byte, bool) {
	if key, ok := s.cache.Get(peerID); ok {
		return bytes.Clone(key), true
	}

	v, err, _ := s.loads.Do(peerID, func() (any, error) {
		mu := s.stripe(peerID)
		mu.Lock()
		defer mu.Unlock()

		// a writer may have filled the cache while we waited for the stripe
		if key, ok := s.cache.Get(peerID); ok {
			return key, nil
		}
		key, err := s.storage.Read(peerID)
		if err != nil {
			return nil, err
		}
		s.cache.Add(peerID, key)
		return key, nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to read shared secret key",
				zap.String("peer_id", peerID),
				zap.Error(err),
			)
		}
		return nil, false
	}
	return bytes.Clone(v.([]byte)), true
}

// Exists reports whether a shared secret is stored for peerID.
func (s *Store) Exists(peerID string) bool {
	if s.cache.Contains(peerID) {
		return true
	}
	ok, err := s.storage.Exists(peerID)
	if err != nil {
		s.logger.Warn("failed to check shared secret key",
			zap.String("peer_id", peerID),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Delete removes the shared secret for peerID from storage and cache.
func (s *Store) Delete(peerID string) error {
	mu := s.stripe(peerID)
	mu.Lock()
	defer mu.Unlock()

	s.cache.Remove(peerID)
	if err := s.storage.Delete(peerID); err != nil {
		return failure.Storage("delete shared key", peerID, err)
	}
	return nil
}

// Cached returns the number of secrets currently held in memory.
func (s *Store) Cached() int {
	return s.cache.Len()
}
