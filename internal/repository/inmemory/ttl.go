package inmemory

import (
	"sync"
	"time"
)

// TTLCache is a small expiring map. Expired items are dropped lazily on read.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]ttlItem[V]
	now   func() time.Time
}

type ttlItem[V any] struct {
	value     V
	expiresAt time.Time
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		items: make(map[string]ttlItem[V]),
		now:   time.Now,
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(key)
		return
	}

	c.mu.Lock()
	c.items[key] = ttlItem[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]ttlItem[V])
	c.mu.Unlock()
}
