package dedup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIndex_EvictsFirstInsertedAtCapacity(t *testing.T) {
	t.Parallel()

	const capacity = 5
	x := newHashIndex(capacity)
	for i := range capacity {
		added, evicted := x.Add(fmt.Sprintf("h%d", i))
		assert.True(t, added)
		assert.Empty(t, evicted)
	}

	// Looking up the oldest entry must not protect it from eviction.
	assert.True(t, x.Contains("h0"))

	added, evicted := x.Add("h5")
	assert.True(t, added)
	assert.Equal(t, "h0", evicted)
	assert.Equal(t, capacity, x.Len())
	assert.False(t, x.Contains("h0"))
	for i := 1; i <= capacity; i++ {
		assert.True(t, x.Contains(fmt.Sprintf("h%d", i)))
	}

	_, evicted = x.Add("h6")
	assert.Equal(t, "h1", evicted)
}

func TestHashIndex_DuplicateAddIsNoop(t *testing.T) {
	t.Parallel()

	x := newHashIndex(2)
	x.Add("a")
	added, _ := x.Add("a")
	assert.False(t, added)
	assert.Equal(t, 1, x.Len())
}

func TestHashIndex_LazyAndReset(t *testing.T) {
	t.Parallel()

	x := newHashIndex(0)
	assert.Equal(t, DefaultCacheCapacity, x.capacity)
	assert.Nil(t, x.ring)
	assert.False(t, x.Contains("a"))

	x.Add("a")
	assert.Len(t, x.ring, DefaultCacheCapacity)

	x.Reset()
	assert.Zero(t, x.Len())
	assert.False(t, x.Contains("a"))
}

func TestHashIndex_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	x := newHashIndex(100)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				x.Add(fmt.Sprintf("w%d-%d", w, i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, x.Len())
	assert.Len(t, x.seen, 100)
}
