// Package cache provides a small generic LRU cache.
package cache

import "container/list"

// LRU holds up to a fixed number of entries, evicting the least recently
// used one when full. It is not safe for concurrent use; callers hold their
// own lock.
type LRU[K comparable, V any] struct {
	limit   int
	order   *list.List // front is most recent
	entries map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New returns an LRU holding at most limit entries. A limit below 1 is
// treated as 1.
func New[K comparable, V any](limit int) *LRU[K, V] {
	return &LRU[K, V]{
		limit:   max(1, limit),
		order:   list.New(),
		entries: make(map[K]*list.Element),
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Put stores value under key, evicting the oldest entry if the cache is
// full.
func (c *LRU[K, V]) Put(key K, value V) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry[K, V]).key)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	return c.order.Len()
}
