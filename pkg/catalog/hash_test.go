package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDjb2Deterministic(t *testing.T) {
	assert.Equal(t, djb2("notes.txt"), djb2("notes.txt"))
	assert.Less(t, djb2("notes.txt"), uint64(hashTableSize))
}

func TestFileHashTableInsertSearchDelete(t *testing.T) {
	ht := newFileHashTable()
	a := &FileMetadata{Filename: "a.txt"}
	b := &FileMetadata{Filename: "b.txt"}

	ht.insert("a.txt", a)
	ht.insert("b.txt", b)
	assert.Equal(t, 2, ht.count)

	assert.Same(t, a, ht.search("a.txt"))
	assert.Same(t, b, ht.search("b.txt"))
	assert.Nil(t, ht.search("missing.txt"))

	ht.delete("a.txt")
	assert.Equal(t, 1, ht.count)
	assert.Nil(t, ht.search("a.txt"))
	assert.Same(t, b, ht.search("b.txt"))
}

func TestFileHashTableChaining(t *testing.T) {
	ht := newFileHashTable()
	// Force a collision by inserting many keys; djb2 % 1024 will collide for
	// some pair among a few hundred names.
	names := make([]string, 0, 2000)
	for i := 0; i < 2000; i++ {
		names = append(names, fmt.Sprintf("file-%d.txt", i))
	}
	for _, n := range names {
		ht.insert(n, &FileMetadata{Filename: n})
	}
	assert.Equal(t, len(names), ht.count)
	for _, n := range names {
		got := ht.search(n)
		if assert.NotNil(t, got) {
			assert.Equal(t, n, got.Filename)
		}
	}
}

func TestFileHashTableDeleteMissingIsNoop(t *testing.T) {
	ht := newFileHashTable()
	ht.insert("a.txt", &FileMetadata{Filename: "a.txt"})
	ht.delete("missing.txt")
	assert.Equal(t, 1, ht.count)
}
