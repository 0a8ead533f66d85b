package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheEvictsOldestOnOverflow(t *testing.T) {
	c := newLRUCache()
	for i := 0; i < lruCapacity; i++ {
		key := fmt.Sprintf("f%d", i)
		c.put(key, &FileMetadata{Filename: key})
	}
	assert.Equal(t, lruCapacity, c.len())

	// f0 is least-recently-used; inserting one more key evicts it.
	c.put("overflow", &FileMetadata{Filename: "overflow"})
	assert.Equal(t, lruCapacity, c.len())
	_, ok := c.get("f0")
	assert.False(t, ok)
	_, ok = c.get("overflow")
	assert.True(t, ok)
}

func TestLRUCacheGetPromotesToFront(t *testing.T) {
	c := newLRUCache()
	for i := 0; i < lruCapacity; i++ {
		key := fmt.Sprintf("f%d", i)
		c.put(key, &FileMetadata{Filename: key})
	}

	// Touch f0 so it is no longer the least-recently-used entry.
	_, ok := c.get("f0")
	assert.True(t, ok)

	c.put("overflow", &FileMetadata{Filename: "overflow"})
	_, ok = c.get("f0")
	assert.True(t, ok, "f0 should have survived eviction after being touched")
	_, ok = c.get("f1")
	assert.False(t, ok, "f1 should have been evicted as the new least-recently-used entry")
}

func TestLRUCachePutExistingKeyRefreshesValue(t *testing.T) {
	c := newLRUCache()
	c.put("a.txt", &FileMetadata{Filename: "a.txt", WordCount: 1})
	c.put("a.txt", &FileMetadata{Filename: "a.txt", WordCount: 2})
	assert.Equal(t, 1, c.len())
	v, ok := c.get("a.txt")
	assert.True(t, ok)
	assert.Equal(t, 2, v.WordCount)
}

func TestLRUCacheRemove(t *testing.T) {
	c := newLRUCache()
	c.put("a.txt", &FileMetadata{Filename: "a.txt"})
	c.remove("a.txt")
	assert.Equal(t, 0, c.len())
	_, ok := c.get("a.txt")
	assert.False(t, ok)
	// Removing an absent key is a no-op, not a panic.
	c.remove("a.txt")
}
