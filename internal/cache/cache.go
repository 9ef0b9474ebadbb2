// Package cache memoizes decryption results per message id.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quietline/e2ee/internal/message"
)

// DefaultCapacity is the default number of cached results.
const DefaultCapacity = 100

// Cache is a bounded LRU of decryption results keyed by message id. It also
// remembers which message ids carried an envelope, independently of whether
// their result was kept. It is safe for concurrent use.
type Cache struct {
	entries   *lru.Cache[int64, *message.Result]
	encrypted *lru.Cache[int64, struct{}]
}

// New returns a Cache holding at most capacity results. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[int64, *message.Result](capacity)
	if err != nil {
		return nil, err
	}
	encrypted, err := lru.New[int64, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, encrypted: encrypted}, nil
}

// Get returns the cached result for messageID.
func (c *Cache) Get(messageID int64) (*message.Result, bool) {
	return c.entries.Get(messageID)
}

// Peek returns the cached result without updating its recency.
func (c *Cache) Peek(messageID int64) (*message.Result, bool) {
	return c.entries.Peek(messageID)
}

// Put stores res for messageID, replacing any previous result.
func (c *Cache) Put(messageID int64, res *message.Result) {
	c.entries.Add(messageID, res)
	c.markIfEncrypted(messageID, res)
}

// PutIfAbsent stores res unless a result is already cached, and returns the
// result that ends up cached.
func (c *Cache) PutIfAbsent(messageID int64, res *message.Result) *message.Result {
	if prev, ok, _ := c.entries.PeekOrAdd(messageID, res); ok {
		return prev
	}
	c.markIfEncrypted(messageID, res)
	return res
}

// MarkEncrypted records that messageID carried an envelope.
func (c *Cache) MarkEncrypted(messageID int64) {
	c.encrypted.Add(messageID, struct{}{})
}

// Encrypted reports whether messageID was marked as carrying an envelope.
func (c *Cache) Encrypted(messageID int64) bool {
	return c.encrypted.Contains(messageID)
}

func (c *Cache) markIfEncrypted(messageID int64, res *message.Result) {
	if res != nil && res.Encrypted {
		c.MarkEncrypted(messageID)
	}
}

// Invalidate drops the result and the mark for messageID.
func (c *Cache) Invalidate(messageID int64) {
	c.entries.Remove(messageID)
	c.encrypted.Remove(messageID)
}

// Purge drops every result and mark.
func (c *Cache) Purge() {
	c.entries.Purge()
	c.encrypted.Purge()
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}
