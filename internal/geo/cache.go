package geo

import (
	"context"
	"sync"
)

// Cached wraps a Geocoder with an in-memory LRU cache. ZIP to place
// mappings are effectively static, so entries live until evicted by
// capacity.
type Cached struct {
	inner Geocoder
	cache *lruCache
}

// NewCached creates a cache decorator around a geocoder.
func NewCached(inner Geocoder, maxEntries int) *Cached {
	return &Cached{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *Cached) Lookup(ctx context.Context, zip string) (Place, error) {
	if place, ok := c.cache.get(zip); ok {
		return place, nil
	}
	place, err := c.inner.Lookup(ctx, zip)
	if err != nil {
		// Only cache successful lookups so transient failures can be retried.
		return Place{}, err
	}
	c.cache.put(zip, place)
	return place, nil
}

// lruCache is a simple thread-safe LRU cache for places.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value Place
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Place{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
