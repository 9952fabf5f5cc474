package blockstore

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

/*
CachedStore wraps any Provider with a byte capacity-limited read cache.
Blocks are immutable once written, so a cached block never goes stale -
the only eviction pressure is the capacity bound.
*/

////////////////////////////////////////////////////////////////////////////////

// CachedStore decorates a Provider with a read-through byte-bounded cache.
type CachedStore struct {
	store Provider
	cache *lru.Cache[Addr, []byte]

	mtx       sync.Mutex
	capacity  uint64
	usedBytes uint64
}

// NewCachedStore wraps store with a cache bounded to capacityBytes of
// cached block data. The underlying lru.Cache is sized generously on item
// count (capacityBytes/64, a conservative guess at minimum block size) and
// the byte budget is enforced by evicting the oldest entries ourselves.
func NewCachedStore(store Provider, capacityBytes uint64) (*CachedStore, error) {
	itemCap := int(capacityBytes/64) + 1
	c := &CachedStore{store: store, capacity: capacityBytes}
	cache, err := lru.NewWithEvict(itemCap, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.cache = cache
	return c, nil
}

func (c *CachedStore) onEvict(_ Addr, data []byte) {
	c.usedBytes -= uint64(len(data))
}

// Read returns the cached block for addr if present, otherwise reads
// through to the underlying store and populates the cache.
func (c *CachedStore) Read(ctx context.Context, addr Addr) ([]byte, error) {
	c.mtx.Lock()
	if data, ok := c.cache.Get(addr); ok {
		c.mtx.Unlock()
		return data, nil
	}
	c.mtx.Unlock()

	data, err := c.store.Read(ctx, addr)
	if err != nil {
		return nil, err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.usedBytes += uint64(len(data))
	c.cache.Add(addr, data)
	for c.usedBytes > c.capacity && c.cache.Len() > 1 {
		c.cache.RemoveOldest()
	}
	return data, nil
}

// Append writes through to the underlying store uncached - the caller
// already holds the bytes it just wrote, so there is nothing to cache.
func (c *CachedStore) Append(ctx context.Context, data []byte) (Addr, error) {
	return c.store.Append(ctx, data)
}

// Sync forwards to the underlying store.
func (c *CachedStore) Sync(ctx context.Context) error {
	return c.store.Sync(ctx)
}

func (c *CachedStore) String() string {
	return "cached(" + stringer(c.store) + ")"
}

func stringer(p Provider) string {
	if s, ok := p.(interface{ String() string }); ok {
		return s.String()
	}
	return "provider"
}
