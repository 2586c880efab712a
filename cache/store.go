// Package cache provides a keyed in-memory store with TTL expiry and
// LRU eviction at a fixed capacity. Contents are volatile: nothing is
// persisted and everything is lost on restart.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Observer receives cache activity notifications. Implementations must be
// safe for concurrent use; the store calls them while holding its lock.
type Observer interface {
	Hit(store string)
	Miss(store string)
	Eviction(store string)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Store is a TTL+LRU cache. Every access and insert moves the key to the
// most-recently-used end of the recency list; inserts beyond capacity evict
// from the least-recently-used end. Expiry is lazy: stale entries are dropped
// on read (and purged by Stats), there is no background sweep.
//
// All methods are safe for concurrent use. Each store carries its own mutex.
type Store[K comparable, V any] struct {
	name     string
	ttl      time.Duration
	capacity int

	mu        sync.Mutex
	order     *list.List // front = most recently used
	index     map[K]*list.Element
	hits      int64
	misses    int64
	evictions int64

	now      func() time.Time
	observer Observer
}

type Option[K comparable, V any] func(*Store[K, V])

func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(s *Store[K, V]) {
		if now != nil {
			s.now = now
		}
	}
}

func WithObserver[K comparable, V any](observer Observer) Option[K, V] {
	return func(s *Store[K, V]) {
		s.observer = observer
	}
}

func New[K comparable, V any](name string, ttl time.Duration, capacity int, opts ...Option[K, V]) *Store[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	s := &Store[K, V]{
		name:     name,
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[K, V]) Name() string { return s.name }

// Get returns the live value for key. An expired entry is removed and counts
// as a miss; a live entry is promoted to most-recently-used.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	elem, ok := s.index[key]
	if !ok {
		s.misses++
		s.notifyMiss()
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if s.now().After(ent.expiresAt) {
		s.order.Remove(elem)
		delete(s.index, key)
		s.misses++
		s.notifyMiss()
		return zero, false
	}
	s.order.MoveToFront(elem)
	s.hits++
	s.notifyHit()
	return ent.value, true
}

// Set inserts or overwrites key. Overwriting resets both TTL and recency.
// When the store is full the least-recently-used entry is evicted first, so
// the size bound holds at every point in time.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(s.ttl)
	if elem, ok := s.index[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		s.order.MoveToFront(elem)
		return
	}

	if s.order.Len() >= s.capacity {
		s.evictOldest()
	}
	elem := s.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	s.index[key] = elem
}

// Flush removes every entry and returns how many were removed. Hit, miss and
// eviction counters survive a flush.
func (s *Store[K, V]) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.order.Len()
	s.order.Init()
	s.index = make(map[K]*list.Element)
	return removed
}

// Stats is a point-in-time snapshot of a store's size and counters.
type Stats struct {
	Name      string `json:"name"`
	Entries   int    `json:"entries"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Evictions int64  `json:"evictions"`
	HitRate   string `json:"hit_rate"`
	TTLMillis int64  `json:"ttl_ms"`
	Capacity  int    `json:"capacity"`
}

// Stats reports the store's current state. Expired entries are purged first
// so the reported entry count reflects only live data.
func (s *Store[K, V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpired()

	rate := "n/a"
	if total := s.hits + s.misses; total > 0 {
		rate = fmt.Sprintf("%.1f%%", float64(s.hits)/float64(total)*100)
	}
	return Stats{
		Name:      s.name,
		Entries:   s.order.Len(),
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		HitRate:   rate,
		TTLMillis: s.ttl.Milliseconds(),
		Capacity:  s.capacity,
	}
}

func (s *Store[K, V]) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	ent := back.Value.(*entry[K, V])
	s.order.Remove(back)
	delete(s.index, ent.key)
	s.evictions++
	if s.observer != nil {
		s.observer.Eviction(s.name)
	}
}

func (s *Store[K, V]) purgeExpired() {
	now := s.now()
	for elem := s.order.Front(); elem != nil; {
		next := elem.Next()
		ent := elem.Value.(*entry[K, V])
		if now.After(ent.expiresAt) {
			s.order.Remove(elem)
			delete(s.index, ent.key)
		}
		elem = next
	}
}

func (s *Store[K, V]) notifyHit() {
	if s.observer != nil {
		s.observer.Hit(s.name)
	}
}

func (s *Store[K, V]) notifyMiss() {
	if s.observer != nil {
		s.observer.Miss(s.name)
	}
}
