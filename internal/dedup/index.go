package dedup

import (
	"sync"
	"time"
)

// hashIndex is a bounded set of hashes with strict FIFO eviction: once
// full, adding a new hash evicts the oldest inserted one regardless of how
// recently it was looked up. The ring is allocated on first insert.
type hashIndex struct {
	mu       sync.Mutex
	capacity int
	ring     []string
	head     int
	size     int
	seen     map[string]time.Time
	now      func() time.Time
}

func newHashIndex(capacity int) *hashIndex {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &hashIndex{capacity: capacity, now: time.Now}
}

// Contains reports whether h is currently held.
func (x *hashIndex) Contains(h string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, ok := x.seen[h]
	return ok
}

// Add inserts h and reports whether it was new. It returns the evicted
// hash, if any.
func (x *hashIndex) Add(h string) (added bool, evicted string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.ring == nil {
		x.ring = make([]string, x.capacity)
		x.seen = make(map[string]time.Time, x.capacity)
	}
	if _, ok := x.seen[h]; ok {
		return false, ""
	}

	if x.size == x.capacity {
		evicted = x.ring[x.head]
		delete(x.seen, evicted)
		x.ring[x.head] = h
		x.head = (x.head + 1) % x.capacity
	} else {
		x.ring[(x.head+x.size)%x.capacity] = h
		x.size++
	}
	x.seen[h] = x.now()
	return true, evicted
}

// Len is the number of held hashes.
func (x *hashIndex) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.size
}

// Reset drops everything and releases the ring.
func (x *hashIndex) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.ring = nil
	x.seen = nil
	x.head = 0
	x.size = 0
}
